package main

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"gopkg.in/yaml.v3"
)

// FoodRecord is one row of the curated composition table, keyed by canonical
// dish name. Per-100g macro fields are NaN when unknown.
type FoodRecord struct {
	CaloriesPer100g float64
	TypicalServingG float64
	Category        string
	ProteinPer100g  float64
	CarbsPer100g    float64
	FatPer100g      float64
}

// FoodDB is the in-memory curated composition source. The table is read-only
// between Replace calls; Replace supports hot reload of the table file.
type FoodDB struct {
	mu        sync.RWMutex
	entries   map[string]FoodRecord
	threshold int // minimum partial-ratio score for a fuzzy hit
}

func NewFoodDB(table map[string]FoodRecord, threshold int) *FoodDB {
	db := &FoodDB{threshold: threshold}
	db.Replace(table)
	return db
}

func (db *FoodDB) Replace(table map[string]FoodRecord) {
	normalized := make(map[string]FoodRecord, len(table))
	for name, rec := range table {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		normalized[name] = rec
	}
	db.mu.Lock()
	db.entries = normalized
	db.mu.Unlock()
}

func (db *FoodDB) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.entries)
}

// Search returns curated candidates for a canonical name, best first. An
// exact key match scores 100 and short-circuits; otherwise all keys are
// scored with the partial-ratio fuzzy measure and hits at or above the
// threshold are kept.
func (db *FoodDB) Search(name string, maxResults int) []Candidate {
	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" {
		return nil
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	if rec, ok := db.entries[q]; ok {
		return []Candidate{curatedCandidate(q, rec, 100)}
	}

	var results []Candidate
	for key, rec := range db.entries {
		score := fuzzy.PartialRatio(q, key)
		if score >= db.threshold {
			results = append(results, curatedCandidate(key, rec, score))
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].MatchScore != results[j].MatchScore {
			return results[i].MatchScore > results[j].MatchScore
		}
		return results[i].Name < results[j].Name
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

func curatedCandidate(key string, rec FoodRecord, score int) Candidate {
	return Candidate{
		ID:              "ru_" + key,
		Name:            key,
		Source:          sourceCurated,
		CaloriesPer100g: rec.CaloriesPer100g,
		TypicalServingG: rec.TypicalServingG,
		Category:        rec.Category,
		ProteinPer100g:  rec.ProteinPer100g,
		CarbsPer100g:    rec.CarbsPer100g,
		FatPer100g:      rec.FatPer100g,
		MatchScore:      score,
	}
}

// compositionSource is an external provider of per-100g composition data.
type compositionSource interface {
	Enabled() bool
	SearchCandidates(query string, maxResults int) []Candidate
}

// Lookup queries the curated table first and falls back to the external
// source only when the curated table yields nothing. Curated candidates
// always outrank external ones regardless of score.
type Lookup struct {
	db       *FoodDB
	external compositionSource // nil when not configured
}

func NewLookup(db *FoodDB, external compositionSource) *Lookup {
	return &Lookup{db: db, external: external}
}

func (l *Lookup) Search(name string, maxResults int) []Candidate {
	results := l.db.Search(name, maxResults)
	log.Printf("lookup curated query=%q hits=%d", name, len(results))

	if len(results) == 0 && l.external != nil && l.external.Enabled() {
		results = l.external.SearchCandidates(name, maxResults)
		log.Printf("lookup external query=%q hits=%d", name, len(results))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return rankKey(results[i]) > rankKey(results[j])
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// rankKey gives curated rows a constant bonus so no external candidate can
// ever outrank one.
func rankKey(c Candidate) int {
	rank := c.MatchScore
	if c.Source == sourceCurated {
		rank += 1000
	}
	return rank
}

type foodTableFile struct {
	Foods map[string]foodTableRow `yaml:"foods"`
}

type foodTableRow struct {
	CaloriesPer100g float64  `yaml:"calories_per_100g"`
	TypicalServingG float64  `yaml:"typical_serving_g"`
	Category        string   `yaml:"category"`
	ProteinPer100g  *float64 `yaml:"protein_per_100g"`
	CarbsPer100g    *float64 `yaml:"carbs_per_100g"`
	FatPer100g      *float64 `yaml:"fat_per_100g"`
}

// LoadFoodTable reads a curated composition table from YAML. Omitted macro
// fields load as unknown rather than zero.
func LoadFoodTable(path string) (map[string]FoodRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read food table: %w", err)
	}
	var f foodTableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse food table yaml: %w", err)
	}
	table := make(map[string]FoodRecord, len(f.Foods))
	for name, row := range f.Foods {
		if row.CaloriesPer100g <= 0 {
			return nil, fmt.Errorf("food table entry %q: calories_per_100g must be > 0", name)
		}
		table[name] = FoodRecord{
			CaloriesPer100g: row.CaloriesPer100g,
			TypicalServingG: row.TypicalServingG,
			Category:        row.Category,
			ProteinPer100g:  macroOrNaN(row.ProteinPer100g),
			CarbsPer100g:    macroOrNaN(row.CarbsPer100g),
			FatPer100g:      macroOrNaN(row.FatPer100g),
		}
	}
	return table, nil
}

func macroOrNaN(v *float64) float64 {
	if v == nil {
		return noMacro()
	}
	return *v
}

// DefaultFoodTable is the built-in curated table of common Russian dishes,
// calories cross-checked against FatSecret per-100g data. The table file, if
// configured, replaces it wholesale.
func DefaultFoodTable() map[string]FoodRecord {
	rec := func(cal, serving float64, category string) FoodRecord {
		return FoodRecord{
			CaloriesPer100g: cal,
			TypicalServingG: serving,
			Category:        category,
			ProteinPer100g:  noMacro(),
			CarbsPer100g:    noMacro(),
			FatPer100g:      noMacro(),
		}
	}
	return map[string]FoodRecord{
		// Soups
		"борщ":       rec(93, 300, "soup"),
		"щи":         rec(60, 300, "soup"),
		"солянка":    rec(90, 300, "soup"),
		"харчо":      rec(85, 300, "soup"),
		"рассольник": rec(70, 300, "soup"),

		// Dumplings
		"пельмени": rec(197, 200, "main"),
		"вареники": rec(220, 200, "main"),
		"хинкали":  rec(240, 180, "main"),

		// Pancakes
		"блины":   rec(267, 250, "main"),
		"оладьи":  rec(260, 120, "main"),
		"сырники": rec(280, 300, "main"),

		// Grains
		"гречка":  rec(132, 200, "side"),
		"рис":     rec(116, 200, "side"),
		"овсянка": rec(88, 200, "side"),

		// Drinks
		"компот": rec(60, 250, "drink"),
		"морс":   rec(40, 300, "drink"),
		"квас":   rec(30, 250, "drink"),
		"кисель": rec(80, 200, "drink"),
		"сок":    rec(45, 250, "drink"),

		// Meat dishes
		"котлеты": rec(280, 150, "main"),
		"тефтели": rec(250, 150, "main"),
		"гуляш":   rec(180, 200, "main"),
		"плов":    rec(190, 250, "main"),

		// Beef
		"стейк говяжий":  rec(220, 250, "main"),
		"стейк":          rec(220, 250, "main"),
		"стейк рибай":    rec(250, 250, "main"),
		"говядина":       rec(187, 200, "main"),
		"говядина гриль": rec(195, 200, "main"),

		// Chicken
		"курица":         rec(165, 200, "main"),
		"курица гриль":   rec(142, 200, "main"),
		"куриная грудка": rec(113, 150, "main"),
		"куриное филе":   rec(113, 150, "main"),

		// Pork
		"свинина":         rec(242, 200, "main"),
		"свинина гриль":   rec(250, 200, "main"),
		"свиная отбивная": rec(260, 150, "main"),

		// Snacks, nuts, vegetables, dairy
		"банановые чипсы": rec(519, 30, "snack"),
		"миндаль":         rec(579, 30, "nuts"),
		"изюм":            rec(299, 50, "snack"),
		"помидор":         rec(18, 100, "vegetable"),
		"сметана":         rec(202, 50, "dairy"),
	}
}
