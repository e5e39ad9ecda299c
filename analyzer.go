package main

import (
	"context"
	"log"
)

// Analyzer runs the full photo-to-nutrition pipeline: optional cache check,
// image preprocessing, vision-model call, response parsing, and
// reconciliation. It never returns an error to the caller; a failed vision
// call degrades to a zero-confidence result.
type Analyzer struct {
	vision     VisionClient
	reconciler *Reconciler
	cache      *ResultCache // nil when caching is disabled
}

func NewAnalyzer(vision VisionClient, reconciler *Reconciler, cache *ResultCache) *Analyzer {
	return &Analyzer{vision: vision, reconciler: reconciler, cache: cache}
}

func (a *Analyzer) AnalyzeImage(ctx context.Context, imageBytes []byte) Aggregate {
	if a.cache != nil {
		if result, ok := a.cache.Get(imageBytes); ok {
			log.Printf("analyze cache hit size=%d", len(imageBytes))
			return result
		}
	}

	prepared := PrepareImage(imageBytes)
	rawText, err := a.vision.Describe(ctx, prepared)
	if err != nil {
		log.Printf("analyze vision error: %v", err)
		return Aggregate{Items: []ReconciledItem{}, Notes: "vision model unavailable"}
	}

	parsed := ParseAnalysis(rawText)
	result := a.reconciler.Reconcile(parsed)
	log.Printf("analyze done items=%d matches=%d kcal=%.0f confidence=%.0f fallback=%v",
		result.ItemCount, result.DatabaseMatches, result.TotalCalories, result.Confidence, parsed.Fallback)

	if a.cache != nil {
		a.cache.Put(imageBytes, result)
	}
	return result
}
