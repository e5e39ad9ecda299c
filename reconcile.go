package main

import (
	"log"
	"math"
)

// Confidence boost applied per database-matched item, its total cap, and the
// ceiling the boosted confidence may never exceed.
const (
	matchConfidenceBoost = 10
	maxConfidenceBoost   = 20
	confidenceCeiling    = 95
)

// Reconciler merges parsed vision-model estimates with composition-source
// data into the final aggregate. It is a stateless single-pass pipeline;
// reconciliation is best-effort per item, never all-or-nothing.
type Reconciler struct {
	translator *Translator
	lookup     *Lookup
	weights    *WeightResolver
	maxResults int
}

func NewReconciler(translator *Translator, lookup *Lookup, weights *WeightResolver, maxResults int) *Reconciler {
	return &Reconciler{
		translator: translator,
		lookup:     lookup,
		weights:    weights,
		maxResults: maxResults,
	}
}

func (r *Reconciler) Reconcile(parsed Analysis) Aggregate {
	agg := Aggregate{Items: []ReconciledItem{}, Notes: parsed.Notes}

	for _, item := range parsed.Items {
		weight := r.weights.Resolve(item)
		rec, matched := r.matchItem(item, weight)
		agg.Items = append(agg.Items, rec)
		if matched {
			agg.DatabaseMatches++
		}
		agg.TotalCalories += rec.Calories
		agg.TotalProtein += rec.Protein
		agg.TotalCarbs += rec.Carbs
		agg.TotalFat += rec.Fat
	}

	agg.ItemCount = len(agg.Items)
	agg.Confidence = boostConfidence(parsed.Confidence, agg.DatabaseMatches)
	return agg
}

// matchItem reconciles a single item against the composition sources. Any
// unexpected fault is contained here: the item falls back to the model's own
// estimate and the batch continues.
func (r *Reconciler) matchItem(item RawItem, weight float64) (rec ReconciledItem, matched bool) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("reconcile item=%q recovered: %v", item.Name, p)
			rec, matched = modelEstimate(item, weight), false
		}
	}()

	canonical := r.translator.Normalize(item.Name)
	candidates := r.lookup.Search(canonical, r.maxResults)
	if len(candidates) == 0 {
		return modelEstimate(item, weight), false
	}

	best := candidates[0]
	rec = ReconciledItem{
		Name:        best.Name,
		WeightG:     weight,
		Calories:    math.Round(best.CaloriesPer100g * weight / 100),
		Protein:     scaledMacro(best.ProteinPer100g, weight, item.Protein),
		Carbs:       scaledMacro(best.CarbsPer100g, weight, item.Carbs),
		Fat:         scaledMacro(best.FatPer100g, weight, item.Fat),
		SourceLabel: sourceLabel(best.Source),
		MatchScore:  best.MatchScore,
	}
	log.Printf("reconcile item=%q canonical=%q source=%s score=%d weight_g=%.0f kcal=%.0f",
		item.Name, canonical, best.Source, best.MatchScore, weight, rec.Calories)
	return rec, true
}

// scaledMacro scales a per-100g macro value by weight, falling back to the
// model's own per-item estimate when the source did not report it.
func scaledMacro(per100g, weight, modelValue float64) float64 {
	if hasMacro(per100g) {
		return round1(per100g * weight / 100)
	}
	return modelValue
}

// modelEstimate passes the model's own numbers through unchanged.
func modelEstimate(item RawItem, weight float64) ReconciledItem {
	return ReconciledItem{
		Name:        item.Name,
		WeightG:     weight,
		Calories:    item.Calories,
		Protein:     item.Protein,
		Carbs:       item.Carbs,
		Fat:         item.Fat,
		SourceLabel: labelModel,
	}
}

func sourceLabel(source string) string {
	switch source {
	case sourceCurated:
		return labelCurated
	case sourceFatSecret:
		return labelFatSecret
	}
	return labelModel
}

// boostConfidence raises the model confidence for every database-matched
// item, capped in total and never exceeding the ceiling. The result is never
// below the model's own confidence.
func boostConfidence(confidence float64, matches int) float64 {
	if matches == 0 {
		return confidence
	}
	boost := float64(matches * matchConfidenceBoost)
	if boost > maxConfidenceBoost {
		boost = maxConfidenceBoost
	}
	boosted := confidence + boost
	if boosted > confidenceCeiling {
		boosted = confidenceCeiling
	}
	if boosted < confidence {
		boosted = confidence
	}
	return boosted
}
