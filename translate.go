package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// unknownDishName is returned for empty or blank item names so lookups
// downstream always have something to search for.
const unknownDishName = "unknown dish"

// Translator maps free-form food names onto the canonical keys used by the
// curated composition table. The phrase table is injected at construction
// (per locale) rather than kept as a process-wide global.
type Translator struct {
	mu    sync.RWMutex
	table map[string]string
}

func NewTranslator(table map[string]string) *Translator {
	t := &Translator{}
	t.Replace(table)
	return t
}

// Replace swaps the phrase table, normalizing keys to lowercase. Used by the
// table file hot reload.
func (t *Translator) Replace(table map[string]string) {
	normalized := make(map[string]string, len(table))
	for phrase, canonical := range table {
		phrase = strings.ToLower(strings.TrimSpace(phrase))
		if phrase == "" {
			continue
		}
		normalized[phrase] = canonical
	}
	t.mu.Lock()
	t.table = normalized
	t.mu.Unlock()
}

// Normalize returns the canonical form of a food name. Exact table hits win;
// otherwise the longest table phrase contained in the name wins, so a
// specific "ham and cheese sandwich" beats a generic "cheese". Names with no
// table hit pass through unchanged.
func (t *Translator) Normalize(name string) string {
	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" {
		return unknownDishName
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if canonical, ok := t.table[q]; ok {
		return canonical
	}

	// Longest phrase wins; equal lengths tie-break on the lexicographically
	// smaller phrase so the result does not depend on map iteration order.
	best, bestPhrase := "", ""
	for phrase, canonical := range t.table {
		if !strings.Contains(q, phrase) {
			continue
		}
		if len(phrase) > len(bestPhrase) || (len(phrase) == len(bestPhrase) && phrase < bestPhrase) {
			best, bestPhrase = canonical, phrase
		}
	}
	if bestPhrase != "" {
		return best
	}
	return name
}

type translationFile struct {
	Entries []translationFileEntry `yaml:"entries"`
}

type translationFileEntry struct {
	Phrase    string `yaml:"phrase"`
	Canonical string `yaml:"canonical"`
}

// LoadTranslationTable reads a phrase table from YAML.
func LoadTranslationTable(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read translation table: %w", err)
	}
	var f translationFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse translation table yaml: %w", err)
	}
	table := make(map[string]string, len(f.Entries))
	for _, e := range f.Entries {
		table[e.Phrase] = e.Canonical
	}
	return table, nil
}

// DefaultTranslations is the built-in English-to-Russian dish table matching
// the built-in curated composition table.
func DefaultTranslations() map[string]string {
	return map[string]string{
		// Soups
		"borscht":                 "борщ",
		"borscht with sour cream": "борщ",
		"shchi":                   "щи",
		"solyanka":                "солянка",
		"kharcho":                 "харчо",
		"rassolnik":               "рассольник",

		// Dumplings
		"dumplings":                "пельмени",
		"dumplings with sour cream": "пельмени",
		"vareniki":                 "вареники",
		"khinkali":                 "хинкали",

		// Pancakes
		"crepe":                   "блины",
		"stuffed crepe":           "блины",
		"blini":                   "блины",
		"pancake":                 "блины",
		"oladyi":                  "оладьи",
		"syrniki":                 "сырники",
		"cottage cheese pancakes": "сырники",
		"cheese pancakes":         "сырники",
		"cottage cheese fritters": "сырники",
		"fried cottage cheese":    "сырники",

		// Grains
		"buckwheat": "гречка",
		"rice":      "рис",
		"oatmeal":   "овсянка",

		// Drinks
		"juice":          "сок",
		"glass of juice": "сок",
		"compote":        "компот",
		"morse":          "морс",
		"kvass":          "квас",
		"kissel":         "кисель",

		// Meat dishes
		"cutlets":   "котлеты",
		"meatballs": "тефтели",
		"goulash":   "гуляш",
		"pilaf":     "плов",

		// Beef
		"steak":              "стейк говяжий",
		"beef steak":         "стейк говяжий",
		"grilled beef steak": "стейк говяжий",
		"grilled steak":      "стейк говяжий",
		"ribeye":             "стейк рибай",
		"ribeye steak":       "стейк рибай",
		"sirloin steak":      "стейк",
		"beef":               "говядина",
		"grilled beef":       "говядина гриль",

		// Chicken
		"chicken":         "курица",
		"grilled chicken": "курица гриль",
		"chicken breast":  "куриная грудка",
		"chicken fillet":  "куриное филе",

		// Pork
		"pork":         "свинина",
		"pork chop":    "свиная отбивная",
		"grilled pork": "свинина гриль",

		// Snacks and nuts
		"banana chips":       "банановые чипсы",
		"dried banana chips": "банановые чипсы",
		"almonds":            "миндаль",
		"raisins":            "изюм",

		// Vegetables
		"tomato":        "помидор",
		"tomatoes":      "помидор",
		"sliced tomato": "помидор",

		// Dairy
		"sour cream": "сметана",
		"smetana":    "сметана",
	}
}
