package main

import (
	"log"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
)

func main() {
	cfg := LoadConfig()

	db, err := InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Error opening database %s: %v", cfg.DBPath, err)
	}
	defer db.Close()
	log.Printf("Database ready at %s", cfg.DBPath)

	translations := DefaultTranslations()
	if cfg.TranslationPath != "" {
		translations, err = LoadTranslationTable(cfg.TranslationPath)
		if err != nil {
			log.Fatalf("Error loading translation table %s: %v", cfg.TranslationPath, err)
		}
	}
	translator := NewTranslator(translations)

	foodTable := DefaultFoodTable()
	if cfg.FoodTablePath != "" {
		foodTable, err = LoadFoodTable(cfg.FoodTablePath)
		if err != nil {
			log.Fatalf("Error loading food table %s: %v", cfg.FoodTablePath, err)
		}
	}
	foodDB := NewFoodDB(foodTable, cfg.FuzzyMatchThreshold)
	log.Printf("Food table loaded entries=%d translations=%d", foodDB.Len(), len(translations))

	var external compositionSource
	if cfg.FatSecretConsumerKey != "" {
		external = NewFatSecretClient(cfg.FatSecretConsumerKey, cfg.FatSecretConsumerSecret)
		log.Printf("FatSecret lookup enabled")
	} else {
		log.Printf("FatSecret lookup disabled (no credentials)")
	}

	lookup := NewLookup(foodDB, external)
	weights := NewWeightResolver(cfg.WeightKcalPerGram)
	reconciler := NewReconciler(translator, lookup, weights, cfg.MaxLookupResults)

	var cache *ResultCache
	if cfg.CacheCapacity > 0 {
		cache = NewResultCache(cfg.CacheCapacity, time.Duration(cfg.CacheTTLHours)*time.Hour, cfg.CacheMinConfidence)
		log.Printf("Result cache enabled capacity=%d ttl_hours=%d", cfg.CacheCapacity, cfg.CacheTTLHours)
	}

	vision := NewAnthropicVision(cfg.AnthropicAPIKey, cfg.VisionModel)
	analyzer := NewAnalyzer(vision, reconciler, cache)

	if cfg.FoodTablePath != "" || cfg.TranslationPath != "" {
		watcher, err := WatchTables(cfg.FoodTablePath, cfg.TranslationPath, foodDB, translator)
		if err != nil {
			log.Fatalf("Error watching table files: %v", err)
		}
		defer watcher.Close()
	}

	c := cron.New()
	if cache != nil {
		if _, err := c.AddFunc("@hourly", func() {
			if removed := cache.Sweep(); removed > 0 {
				log.Printf("cache sweep removed=%d size=%d", removed, cache.Len())
			}
		}); err != nil {
			log.Fatalf("Error scheduling cache sweep: %v", err)
		}
	}
	// Recompute yesterday's rollups shortly after midnight so late writes and
	// crashes cannot leave the daily totals out of sync with the entries.
	if _, err := c.AddFunc("15 0 * * *", func() {
		day := time.Now().AddDate(0, 0, -1).Format(dayFormat)
		if err := RebuildDailyStats(db, day); err != nil {
			log.Printf("rebuild daily stats day=%s error: %v", day, err)
		} else {
			log.Printf("rebuilt daily stats day=%s", day)
		}
	}); err != nil {
		log.Fatalf("Error scheduling daily stats rebuild: %v", err)
	}
	c.Start()
	defer c.Stop()

	server := NewServer(db, analyzer, cfg)
	log.Printf("Listening on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, server.Handler()); err != nil {
		log.Fatalf("HTTP server error: %v", err)
	}
}
