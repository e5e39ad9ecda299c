package main

import (
	"log"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// Fallback values used when the vision response never parses as JSON.
const (
	fallbackConfidence     = 30
	fallbackPortion        = "250g"
	fallbackCalories       = 400
	fallbackProtein        = 20
	fallbackCarbs          = 25
	fallbackFat            = 15
	genericFallbackCalories = 350
	rawTextDiagnosticLimit  = 300
)

// Defaults backfilled onto parsed items with missing or non-positive fields.
const (
	defaultItemName     = "unknown item"
	defaultItemCalories = 100
	defaultItemProtein  = 5
	defaultItemCarbs    = 10
	defaultItemFat      = 5
)

// fallbackKeywords drive the last-resort scan over an unparseable response:
// if the model at least mentioned recognizable food words, we synthesize a
// single generic item from them instead of giving up entirely.
var fallbackKeywords = []string{
	"steak", "beef", "chicken", "pork", "fish", "egg", "cheese",
	"bread", "rice", "pasta", "potato", "salad", "soup", "borscht",
	"pancake", "dumpling", "porridge", "sandwich", "burger", "pizza",
}

// ParseAnalysis extracts a structured nutrition payload from raw vision-model
// output. It never fails: any input, including garbage and the empty string,
// yields a structurally valid Analysis. Unparseable responses degrade to a
// low-confidence fallback result.
func ParseAnalysis(rawText string) Analysis {
	seg, ok := extractJSON(rawText)
	if !ok {
		log.Printf("parse fallback raw_len=%d", len(rawText))
		return fallbackAnalysis(rawText)
	}

	doc := gjson.Parse(seg)
	items := []RawItem{}
	// A non-array food_items value is treated as empty, not coerced into a
	// one-item list.
	if list := doc.Get("food_items"); list.IsArray() {
		for _, el := range list.Array() {
			// Non-object entries are dropped outright.
			if !el.IsObject() {
				continue
			}
			items = append(items, rawItemFromJSON(el))
		}
	}

	a := Analysis{
		Items:      items,
		Confidence: clampConfidence(doc.Get("confidence").Float()),
		Notes:      doc.Get("analysis_notes").String(),
		RawText:    rawText,
	}

	var calSum float64
	for _, it := range items {
		calSum += it.Calories
		a.TotalProtein += it.Protein
		a.TotalCarbs += it.Carbs
		a.TotalFat += it.Fat
	}

	// The top-level total is only trusted when present and non-zero; macro
	// totals are never trusted from the top level at all.
	a.TotalCalories = doc.Get("total_calories").Float()
	if a.TotalCalories <= 0 {
		a.TotalCalories = calSum
	}
	return a
}

// extractJSON tries, in order: the span from the first '{' to the last '}',
// a fenced ```json block, then any fenced code block. The first candidate
// that parses as a JSON object wins.
func extractJSON(raw string) (string, bool) {
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		if seg := raw[start : end+1]; isJSONObject(seg) {
			return seg, true
		}
	}
	if seg, ok := fencedBlock(raw, "```json"); ok && isJSONObject(seg) {
		return seg, true
	}
	if seg, ok := fencedBlock(raw, "```"); ok && isJSONObject(seg) {
		return seg, true
	}
	return "", false
}

func fencedBlock(raw, fence string) (string, bool) {
	start := strings.Index(raw, fence)
	if start < 0 {
		return "", false
	}
	body := raw[start+len(fence):]
	end := strings.Index(body, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(body[:end]), true
}

func isJSONObject(seg string) bool {
	return gjson.Valid(seg) && gjson.Parse(seg).IsObject()
}

// rawItemFromJSON maps one parsed entry onto the canonical item shape.
// Known field aliases are resolved here so downstream code never branches
// on field-name variants; missing fields get conservative defaults.
func rawItemFromJSON(el gjson.Result) RawItem {
	name := strings.TrimSpace(firstString(el, "name"))
	if name == "" {
		name = defaultItemName
	}
	item := RawItem{
		Name:      name,
		Portion:   strings.TrimSpace(firstString(el, "portion_size", "estimated_weight")),
		Calories:  firstNumber(el, "calories"),
		Protein:   firstNumber(el, "proteins", "protein_g"),
		Carbs:     firstNumber(el, "carbs", "carbs_g"),
		Fat:       firstNumber(el, "fats", "fat_g"),
		Certainty: normalizeCertainty(el.Get("certainty").String()),
	}
	if item.Calories <= 0 {
		item.Calories = defaultItemCalories
	}
	if item.Protein <= 0 {
		item.Protein = defaultItemProtein
	}
	if item.Carbs <= 0 {
		item.Carbs = defaultItemCarbs
	}
	if item.Fat <= 0 {
		item.Fat = defaultItemFat
	}
	return item
}

func firstString(el gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := el.Get(k); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// truncateOnRune caps a string at limit bytes without splitting a UTF-8
// sequence.
func truncateOnRune(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func firstNumber(el gjson.Result, keys ...string) float64 {
	for _, k := range keys {
		if v := el.Get(k); v.Exists() {
			return v.Float()
		}
	}
	return 0
}

func fallbackAnalysis(rawText string) Analysis {
	lower := strings.ToLower(rawText)
	var found []string
	for _, kw := range fallbackKeywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}

	if len(found) > 0 {
		item := RawItem{
			Name:      strings.Join(found, ", "),
			Portion:   fallbackPortion,
			Calories:  fallbackCalories,
			Protein:   fallbackProtein,
			Carbs:     fallbackCarbs,
			Fat:       fallbackFat,
			Certainty: "low",
		}
		return Analysis{
			Items:         []RawItem{item},
			TotalCalories: item.Calories,
			TotalProtein:  item.Protein,
			TotalCarbs:    item.Carbs,
			TotalFat:      item.Fat,
			Confidence:    fallbackConfidence,
			Notes:         "rough estimate from food keywords in an unparseable response",
			RawText:       rawText,
			Fallback:      true,
		}
	}

	snippet := truncateOnRune(rawText, rawTextDiagnosticLimit)
	item := RawItem{
		Name:      "unrecognized dish",
		Portion:   fallbackPortion,
		Calories:  genericFallbackCalories,
		Protein:   fallbackProtein,
		Carbs:     fallbackCarbs,
		Fat:       fallbackFat,
		Certainty: "low",
	}
	return Analysis{
		Items:         []RawItem{item},
		TotalCalories: item.Calories,
		TotalProtein:  item.Protein,
		TotalCarbs:    item.Carbs,
		TotalFat:      item.Fat,
		Confidence:    fallbackConfidence,
		Notes:         "unable to parse model response: " + snippet,
		RawText:       rawText,
		Fallback:      true,
	}
}
