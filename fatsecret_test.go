package main

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestFatSecret(t *testing.T, handler http.HandlerFunc) *FatSecretClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewFatSecretClient("test-key", "test-secret")
	c.baseURL = server.URL
	c.httpClient = server.Client()
	c.now = func() time.Time { return time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC) }
	c.nonce = func() string { return "fixed-nonce" }
	return c
}

const searchResponse = `{
	"foods": {
		"food": [
			{"food_id": "1001", "food_name": "Borscht"},
			{"food_id": "1002", "food_name": "Beet Soup"}
		]
	}
}`

const detailsResponse = `{
	"food": {
		"food_id": "1001",
		"food_name": "Borscht",
		"servings": {
			"serving": [
				{"metric_serving_unit": "g", "metric_serving_amount": 250, "calories": 122},
				{"metric_serving_unit": "g", "metric_serving_amount": 100, "calories": 49, "protein": 1.6, "carbohydrate": 6.6, "fat": 1.6}
			]
		}
	}
}`

func TestFatSecretSearchCandidates(t *testing.T) {
	c := newTestFatSecret(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("method") {
		case "foods.search":
			w.Write([]byte(searchResponse))
		case "food.get":
			w.Write([]byte(detailsResponse))
		default:
			t.Errorf("unexpected method %q", r.URL.Query().Get("method"))
		}
	})

	candidates := c.SearchCandidates("borscht", 5)
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	got := candidates[0]
	if got.ID != "1001" || got.Name != "Borscht" || got.Source != sourceFatSecret {
		t.Fatalf("unexpected candidate: %+v", got)
	}
	// Only the 100 g metric serving counts.
	if got.CaloriesPer100g != 49 {
		t.Fatalf("expected 49 kcal from the 100g serving, got %f", got.CaloriesPer100g)
	}
	if got.ProteinPer100g != 1.6 || got.CarbsPer100g != 6.6 || got.FatPer100g != 1.6 {
		t.Fatalf("unexpected macros: %+v", got)
	}
}

func TestFatSecretSingleObjectFood(t *testing.T) {
	// Single-result responses come back as an object, not an array.
	c := newTestFatSecret(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("method") {
		case "foods.search":
			w.Write([]byte(`{"foods": {"food": {"food_id": "1001", "food_name": "Borscht"}}}`))
		case "food.get":
			w.Write([]byte(detailsResponse))
		}
	})

	candidates := c.SearchCandidates("borscht", 5)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate from a single-object response, got %d", len(candidates))
	}
}

func TestFatSecretSkipsFoodsWithout100gServing(t *testing.T) {
	c := newTestFatSecret(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("method") {
		case "foods.search":
			w.Write([]byte(`{"foods": {"food": [{"food_id": "2001", "food_name": "Odd Portions"}]}}`))
		case "food.get":
			w.Write([]byte(`{"food": {"food_name": "Odd Portions", "servings": {"serving": [
				{"metric_serving_unit": "g", "metric_serving_amount": 85, "calories": 200},
				{"metric_serving_unit": "oz", "metric_serving_amount": 100, "calories": 300}
			]}}}`))
		}
	})

	if candidates := c.SearchCandidates("anything", 5); len(candidates) != 0 {
		t.Fatalf("foods without a 100g serving must be skipped, got %+v", candidates)
	}
}

func TestFatSecretMissingMacroIsUnknown(t *testing.T) {
	c := newTestFatSecret(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("method") {
		case "foods.search":
			w.Write([]byte(`{"foods": {"food": [{"food_id": "3001"}]}}`))
		case "food.get":
			w.Write([]byte(`{"food": {"food_name": "Plain", "servings": {"serving": [
				{"metric_serving_unit": "g", "metric_serving_amount": 100, "calories": 120, "protein": 4}
			]}}}`))
		}
	})

	candidates := c.SearchCandidates("plain", 5)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	got := candidates[0]
	if got.ProteinPer100g != 4 {
		t.Fatalf("reported macro lost: %+v", got)
	}
	if !math.IsNaN(got.CarbsPer100g) || !math.IsNaN(got.FatPer100g) {
		t.Fatalf("missing macros must be unknown, got %+v", got)
	}
}

func TestFatSecretAPIErrorYieldsNoCandidates(t *testing.T) {
	c := newTestFatSecret(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": {"code": 8, "message": "invalid signature"}}`))
	})
	if candidates := c.SearchCandidates("borscht", 5); candidates != nil {
		t.Fatalf("API error must degrade to no candidates, got %+v", candidates)
	}

	c = newTestFatSecret(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	if candidates := c.SearchCandidates("borscht", 5); candidates != nil {
		t.Fatalf("HTTP failure must degrade to no candidates, got %+v", candidates)
	}
}

func TestFatSecretDisabledWithoutCredentials(t *testing.T) {
	c := NewFatSecretClient("", "")
	if c.Enabled() {
		t.Fatalf("client without credentials must be disabled")
	}
	if candidates := c.SearchCandidates("borscht", 5); candidates != nil {
		t.Fatalf("disabled client must return nil, got %+v", candidates)
	}

	var nilClient *FatSecretClient
	if nilClient.Enabled() {
		t.Fatalf("nil client must be disabled")
	}
}

func TestFatSecretSignedParams(t *testing.T) {
	c := NewFatSecretClient("test-key", "test-secret")
	c.now = func() time.Time { return time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC) }
	c.nonce = func() string { return "fixed-nonce" }

	params := map[string]string{"method": "foods.search", "search_expression": "картофельное пюре", "format": "json"}
	first := c.signedParams("GET", params)
	second := c.signedParams("GET", params)

	sig := first.Get("oauth_signature")
	if sig == "" {
		t.Fatalf("missing oauth_signature")
	}
	if sig != second.Get("oauth_signature") {
		t.Fatalf("signature must be deterministic for fixed nonce and timestamp")
	}
	if first.Get("oauth_consumer_key") != "test-key" {
		t.Fatalf("missing oauth_consumer_key")
	}
	if first.Get("oauth_signature_method") != "HMAC-SHA1" {
		t.Fatalf("unexpected signature method %q", first.Get("oauth_signature_method"))
	}
	if first.Get("oauth_timestamp") == "" || first.Get("oauth_nonce") != "fixed-nonce" {
		t.Fatalf("oauth timestamp/nonce not set: %v", first)
	}
	if first.Get("search_expression") != "картофельное пюре" {
		t.Fatalf("request params lost: %v", first)
	}
}

func TestPercentEncode(t *testing.T) {
	if got := percentEncode("картофельное пюре"); got == "" || got[len(got)-1] == '+' {
		t.Fatalf("unexpected encoding: %q", got)
	}
	if got := percentEncode("a b"); got != "a%20b" {
		t.Fatalf("spaces must encode as %%20, got %q", got)
	}
	if got := percentEncode("a&b=c"); got != "a%26b%3Dc" {
		t.Fatalf("reserved characters must be encoded, got %q", got)
	}
}
