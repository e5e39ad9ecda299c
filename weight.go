package main

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// minWeightG is the floor applied to every resolved weight.
const minWeightG = 50

// weightPattern matches an explicit amount with a gram or milliliter unit
// inside a free-form portion description ("320g", "250 мл", "1.5 г").
// Milliliters are treated as grams.
var weightPattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(грамм|гр|г|grams|gram|g|мл|ml)`)

// WeightResolver derives a usable weight in grams for an item. When the
// portion description carries no parseable weight, the weight is inferred
// from the reported calories assuming an average caloric density — a crude
// but deliberate fallback carried over from the source system.
type WeightResolver struct {
	kcalPerGram float64
}

func NewWeightResolver(kcalPerGram float64) *WeightResolver {
	return &WeightResolver{kcalPerGram: kcalPerGram}
}

// Resolve always returns a positive weight of at least minWeightG grams.
func (r *WeightResolver) Resolve(item RawItem) float64 {
	if m := weightPattern.FindStringSubmatch(item.Portion); m != nil {
		raw := strings.ReplaceAll(m[1], ",", ".")
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			return math.Max(minWeightG, math.Round(v))
		}
	}
	if item.Calories > 0 {
		return math.Max(minWeightG, math.Round(item.Calories/r.kcalPerGram))
	}
	return minWeightG
}
