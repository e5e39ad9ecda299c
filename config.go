package main

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	VisionModel     string `yaml:"vision_model"`

	FatSecretConsumerKey    string `yaml:"fatsecret_consumer_key"`
	FatSecretConsumerSecret string `yaml:"fatsecret_consumer_secret"`

	DBPath     string `yaml:"db_path"`
	ListenAddr string `yaml:"listen_addr"`

	FoodTablePath    string `yaml:"food_table_path"`
	TranslationPath  string `yaml:"translation_table_path"`

	FuzzyMatchThreshold int     `yaml:"fuzzy_match_threshold"`
	WeightKcalPerGram   float64 `yaml:"weight_kcal_per_gram"`
	MaxLookupResults    int     `yaml:"max_lookup_results"`

	CacheCapacity      int     `yaml:"cache_capacity"` // 0 disables the result cache
	CacheTTLHours      int     `yaml:"cache_ttl_hours"`
	CacheMinConfidence float64 `yaml:"cache_min_confidence"`

	DefaultDailyGoal int `yaml:"default_daily_goal"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.VisionModel, "VISION_MODEL")
	envOverride(&cfg.FatSecretConsumerKey, "FATSECRET_CONSUMER_KEY")
	envOverride(&cfg.FatSecretConsumerSecret, "FATSECRET_CONSUMER_SECRET")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.ListenAddr, "LISTEN_ADDR")
	envOverride(&cfg.FoodTablePath, "FOOD_TABLE_PATH")
	envOverride(&cfg.TranslationPath, "TRANSLATION_TABLE_PATH")
	envOverrideInt(&cfg.FuzzyMatchThreshold, "FUZZY_MATCH_THRESHOLD")
	envOverrideFloat(&cfg.WeightKcalPerGram, "WEIGHT_KCAL_PER_GRAM")
	envOverrideInt(&cfg.MaxLookupResults, "MAX_LOOKUP_RESULTS")
	envOverrideInt(&cfg.CacheCapacity, "CACHE_CAPACITY")
	envOverrideInt(&cfg.CacheTTLHours, "CACHE_TTL_HOURS")
	envOverrideFloat(&cfg.CacheMinConfidence, "CACHE_MIN_CONFIDENCE")
	envOverrideInt(&cfg.DefaultDailyGoal, "DEFAULT_DAILY_GOAL")

	// Defaults
	if cfg.DBPath == "" {
		cfg.DBPath = "./caloriebot.db"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.FuzzyMatchThreshold == 0 {
		cfg.FuzzyMatchThreshold = 70
	}
	if cfg.WeightKcalPerGram == 0 {
		// Heuristic average caloric density carried over from the source
		// system; tune per deployment, not a physical constant.
		cfg.WeightKcalPerGram = 2.5
	}
	if cfg.MaxLookupResults == 0 {
		cfg.MaxLookupResults = 5
	}
	if cfg.CacheTTLHours == 0 {
		cfg.CacheTTLHours = 24
	}
	if cfg.CacheMinConfidence == 0 {
		cfg.CacheMinConfidence = 50
	}
	if cfg.DefaultDailyGoal == 0 {
		cfg.DefaultDailyGoal = 2000
	}

	// Validate required fields
	if cfg.AnthropicAPIKey == "" {
		log.Fatalf("Required config 'anthropic_api_key' is not set (via config.yaml or env var)")
	}
	if cfg.FuzzyMatchThreshold < 0 || cfg.FuzzyMatchThreshold > 100 {
		log.Fatalf("invalid fuzzy_match_threshold '%d': must be between 0 and 100", cfg.FuzzyMatchThreshold)
	}
	if cfg.WeightKcalPerGram <= 0 {
		log.Fatalf("invalid weight_kcal_per_gram '%f': must be > 0", cfg.WeightKcalPerGram)
	}
	if cfg.MaxLookupResults < 1 {
		log.Fatalf("invalid max_lookup_results '%d': must be >= 1", cfg.MaxLookupResults)
	}
	if cfg.CacheCapacity < 0 {
		log.Fatalf("invalid cache_capacity '%d': must be >= 0", cfg.CacheCapacity)
	}
	if cfg.CacheMinConfidence < 0 || cfg.CacheMinConfidence > 100 {
		log.Fatalf("invalid cache_min_confidence '%f': must be between 0 and 100", cfg.CacheMinConfidence)
	}
	if (cfg.FatSecretConsumerKey == "") != (cfg.FatSecretConsumerSecret == "") {
		log.Fatalf("fatsecret_consumer_key and fatsecret_consumer_secret must be set together")
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
