package main

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const fatSecretBaseURL = "https://platform.fatsecret.com/rest/server.api"

// FatSecretClient queries the FatSecret Platform API, signing each request
// with the OAuth 1.0 HMAC-SHA1 scheme. Without credentials the client is
// disabled and lookup proceeds with the curated source only. All failures
// degrade to "no candidates"; they are logged, never propagated.
type FatSecretClient struct {
	consumerKey    string
	consumerSecret string
	baseURL        string
	httpClient     *http.Client
	nonce          func() string
	now            func() time.Time
}

func NewFatSecretClient(consumerKey, consumerSecret string) *FatSecretClient {
	c := &FatSecretClient{
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		baseURL:        fatSecretBaseURL,
		httpClient:     externalHTTPClient,
		now:            time.Now,
	}
	c.nonce = func() string {
		return strconv.FormatInt(c.now().UnixMicro(), 10)
	}
	return c
}

func (c *FatSecretClient) Enabled() bool {
	return c != nil && c.consumerKey != "" && c.consumerSecret != ""
}

// SearchCandidates searches FatSecret for a phrase and maps results that
// carry per-100g nutrition data into composition candidates.
func (c *FatSecretClient) SearchCandidates(query string, maxResults int) []Candidate {
	if !c.Enabled() {
		return nil
	}

	body, err := c.call(map[string]string{
		"method":            "foods.search",
		"search_expression": query,
		"format":            "json",
	})
	if err != nil {
		log.Printf("fatsecret search query=%q error: %v", query, err)
		return nil
	}

	var candidates []Candidate
	for _, food := range foodList(gjson.GetBytes(body, "foods.food")) {
		if len(candidates) >= maxResults {
			break
		}
		id := food.Get("food_id").String()
		if id == "" {
			continue
		}
		cand, ok := c.foodDetails(id)
		if !ok {
			continue
		}
		candidates = append(candidates, cand)
	}
	log.Printf("fatsecret search query=%q candidates=%d", query, len(candidates))
	return candidates
}

// foodDetails fetches one food and extracts its 100 g metric serving.
// Foods without a 100 g serving are skipped: scaling from arbitrary serving
// sizes is not worth the noise.
func (c *FatSecretClient) foodDetails(foodID string) (Candidate, bool) {
	body, err := c.call(map[string]string{
		"method":  "food.get",
		"food_id": foodID,
		"format":  "json",
	})
	if err != nil {
		log.Printf("fatsecret details food_id=%s error: %v", foodID, err)
		return Candidate{}, false
	}

	food := gjson.GetBytes(body, "food")
	for _, serving := range foodList(food.Get("servings.serving")) {
		if serving.Get("metric_serving_unit").String() != "g" {
			continue
		}
		if serving.Get("metric_serving_amount").Float() != 100 {
			continue
		}
		calories := serving.Get("calories").Float()
		if calories <= 0 {
			continue
		}
		return Candidate{
			ID:              foodID,
			Name:            food.Get("food_name").String(),
			Source:          sourceFatSecret,
			CaloriesPer100g: calories,
			ProteinPer100g:  macroField(serving, "protein"),
			CarbsPer100g:    macroField(serving, "carbohydrate"),
			FatPer100g:      macroField(serving, "fat"),
		}, true
	}
	return Candidate{}, false
}

func macroField(serving gjson.Result, key string) float64 {
	v := serving.Get(key)
	if !v.Exists() {
		return noMacro()
	}
	return v.Float()
}

// foodList tolerates the API returning a single object where an array is
// expected (single-result responses).
func foodList(v gjson.Result) []gjson.Result {
	if v.IsArray() {
		return v.Array()
	}
	if v.IsObject() {
		return []gjson.Result{v}
	}
	return nil
}

func (c *FatSecretClient) call(params map[string]string) ([]byte, error) {
	values := c.signedParams("GET", params)

	req, err := http.NewRequest("GET", c.baseURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("FatSecret API returned %d: %s", resp.StatusCode, string(body))
	}
	if errMsg := gjson.GetBytes(body, "error.message"); errMsg.Exists() {
		return nil, fmt.Errorf("FatSecret API error: %s", errMsg.String())
	}
	return body, nil
}

// signedParams merges the request parameters with the OAuth 1.0 parameter
// set and computes the HMAC-SHA1 signature over the sorted, percent-encoded
// base string.
func (c *FatSecretClient) signedParams(method string, params map[string]string) url.Values {
	all := map[string]string{
		"oauth_consumer_key":     c.consumerKey,
		"oauth_nonce":            c.nonce(),
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        strconv.FormatInt(c.now().Unix(), 10),
		"oauth_version":          "1.0",
	}
	for k, v := range params {
		all[k] = v
	}

	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, percentEncode(k)+"="+percentEncode(all[k]))
	}
	paramString := strings.Join(pairs, "&")
	baseString := method + "&" + percentEncode(c.baseURL) + "&" + percentEncode(paramString)

	mac := hmac.New(sha1.New, []byte(percentEncode(c.consumerSecret)+"&"))
	mac.Write([]byte(baseString))
	all["oauth_signature"] = base64.StdEncoding.EncodeToString(mac.Sum(nil))

	values := url.Values{}
	for k, v := range all {
		values.Set(k, v)
	}
	return values
}

// percentEncode applies RFC 3986 encoding as OAuth requires; QueryEscape is
// close but encodes spaces as '+'.
func percentEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
