package main

import "testing"

func TestNormalizeExactMatch(t *testing.T) {
	tr := NewTranslator(DefaultTranslations())

	if got := tr.Normalize("borscht"); got != "борщ" {
		t.Fatalf("expected борщ, got %q", got)
	}
	if got := tr.Normalize("  Borscht  "); got != "борщ" {
		t.Fatalf("case/space insensitive lookup failed: %q", got)
	}
}

func TestNormalizeLongestSubstringWins(t *testing.T) {
	tr := NewTranslator(map[string]string{
		"cheese":                  "сыр",
		"sandwich":                "сэндвич",
		"ham and cheese sandwich": "сэндвич с ветчиной",
	})

	if got := tr.Normalize("a ham and cheese sandwich on a plate"); got != "сэндвич с ветчиной" {
		t.Fatalf("expected the longest phrase to win, got %q", got)
	}
	if got := tr.Normalize("cheese plate"); got != "сыр" {
		t.Fatalf("expected сыр, got %q", got)
	}
}

func TestNormalizeEqualLengthTieBreak(t *testing.T) {
	tr := NewTranslator(map[string]string{
		"rice": "рис",
		"meat": "мясо",
	})

	// Both phrases occur and have equal length; the lexicographically
	// smaller phrase must win, every time.
	for i := 0; i < 50; i++ {
		if got := tr.Normalize("rice and meat bowl"); got != "мясо" {
			t.Fatalf("iteration %d: expected мясо, got %q", i, got)
		}
	}
}

func TestNormalizePassthrough(t *testing.T) {
	tr := NewTranslator(DefaultTranslations())

	if got := tr.Normalize("dragon fruit smoothie bowl"); got != "dragon fruit smoothie bowl" {
		t.Fatalf("unmatched name must pass through, got %q", got)
	}
}

func TestNormalizeEmptyName(t *testing.T) {
	tr := NewTranslator(DefaultTranslations())

	if got := tr.Normalize(""); got != "unknown dish" {
		t.Fatalf("expected unknown dish, got %q", got)
	}
	if got := tr.Normalize("   "); got != "unknown dish" {
		t.Fatalf("expected unknown dish for blanks, got %q", got)
	}
}

func TestTranslatorReplace(t *testing.T) {
	tr := NewTranslator(map[string]string{"porridge": "каша"})
	if got := tr.Normalize("porridge"); got != "каша" {
		t.Fatalf("expected каша, got %q", got)
	}

	tr.Replace(map[string]string{"  PORRIDGE  ": "овсянка", "": "dropped"})
	if got := tr.Normalize("porridge"); got != "овсянка" {
		t.Fatalf("replaced table not used, got %q", got)
	}
}

func TestLoadTranslationTable(t *testing.T) {
	path := writeTempFile(t, "translations.yaml", `
entries:
  - phrase: fried egg
    canonical: яичница
  - phrase: scrambled eggs
    canonical: яичница
`)
	table, err := LoadTranslationTable(path)
	if err != nil {
		t.Fatalf("LoadTranslationTable: %v", err)
	}
	if table["fried egg"] != "яичница" || table["scrambled eggs"] != "яичница" {
		t.Fatalf("unexpected table: %+v", table)
	}
}
