package main

import (
	"math"
	"time"
)

// RawItem is one food item as reported by the vision model, before
// reconciliation against composition data.
type RawItem struct {
	Name      string
	Portion   string // free-form portion description, e.g. "4 pieces" or "250g"
	Calories  float64
	Protein   float64
	Carbs     float64
	Fat       float64
	Certainty string // "high", "medium", or "low"
}

// Analysis is the parsed, validated vision-model response. Items is never
// nil; macro totals are always recomputed from the items.
type Analysis struct {
	Items         []RawItem
	TotalCalories float64
	TotalProtein  float64
	TotalCarbs    float64
	TotalFat      float64
	Confidence    float64 // 0-100
	Notes         string
	RawText       string // retained for diagnostics on parse failure
	Fallback      bool   // true when the response text never parsed as JSON
}

// Candidate is one scored row from a composition source. Per-100g macro
// fields are NaN when the source does not report them.
type Candidate struct {
	ID              string
	Name            string
	Source          string // sourceCurated or sourceFatSecret
	CaloriesPer100g float64
	TypicalServingG float64
	Category        string
	ProteinPer100g  float64
	CarbsPer100g    float64
	FatPer100g      float64
	MatchScore      int // 0-100 similarity, 100 for an exact key match
}

const (
	sourceCurated   = "curated"
	sourceFatSecret = "fatsecret"
)

// Human-readable provenance labels carried on reconciled items.
const (
	labelCurated   = "database match"
	labelFatSecret = "nutrition api match"
	labelModel     = "model estimate"
)

// ReconciledItem is the final per-item output after merging the model
// estimate with composition data.
type ReconciledItem struct {
	Name        string  `json:"name"`
	WeightG     float64 `json:"weight_g"`
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein_g"`
	Carbs       float64 `json:"carbs_g"`
	Fat         float64 `json:"fat_g"`
	SourceLabel string  `json:"source"`
	MatchScore  int     `json:"match_score,omitempty"`
}

// Aggregate is the result handed back to calling code. TotalCalories is
// always the exact sum of the item calories.
type Aggregate struct {
	Items           []ReconciledItem `json:"items"`
	TotalCalories   float64          `json:"total_calories"`
	TotalProtein    float64          `json:"total_protein_g"`
	TotalCarbs      float64          `json:"total_carbs_g"`
	TotalFat        float64          `json:"total_fat_g"`
	Confidence      float64          `json:"confidence"`
	DatabaseMatches int              `json:"database_matches"`
	ItemCount       int              `json:"item_count"`
	Notes           string           `json:"notes,omitempty"`
}

func normalizeCertainty(s string) string {
	switch s {
	case "high", "medium", "low":
		return s
	}
	return "medium"
}

// noMacro marks a per-100g macro value a composition source did not report.
func noMacro() float64 { return math.NaN() }

func hasMacro(v float64) bool { return !math.IsNaN(v) }

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// MealTypeAt buckets a timestamp into the meal slot used for history entries.
func MealTypeAt(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 6 && h < 11:
		return "breakfast"
	case h >= 11 && h < 16:
		return "lunch"
	case h >= 16 && h < 22:
		return "dinner"
	default:
		return "snack"
	}
}
