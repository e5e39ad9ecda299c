package main

import (
	"testing"
	"time"
)

func TestGetOrCreateUser(t *testing.T) {
	db := newTestDB(t)

	u, err := GetOrCreateUser(db, 12345, "alice", "Alice", 1800)
	if err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}
	if u.TelegramID != 12345 || u.Username != "alice" || u.DailyCalorieGoal != 1800 {
		t.Fatalf("unexpected user: %+v", u)
	}

	again, err := GetOrCreateUser(db, 12345, "renamed", "Else", 2500)
	if err != nil {
		t.Fatalf("second GetOrCreateUser: %v", err)
	}
	if again.ID != u.ID || again.Username != "alice" || again.DailyCalorieGoal != 1800 {
		t.Fatalf("existing user must not be modified: %+v", again)
	}
}

func TestSaveUserSettings(t *testing.T) {
	db := newTestDB(t)

	u, err := GetOrCreateUser(db, 1, "", "", 2000)
	if err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}
	u.DailyCalorieGoal = 1650
	u.WeightKg = 72.5
	u.Gender = "female"
	u.ActivityLevel = "high"
	if err := SaveUserSettings(db, u); err != nil {
		t.Fatalf("SaveUserSettings: %v", err)
	}

	got, err := GetUserByTelegramID(db, 1)
	if err != nil {
		t.Fatalf("GetUserByTelegramID: %v", err)
	}
	if got.DailyCalorieGoal != 1650 || got.WeightKg != 72.5 || got.Gender != "female" || got.ActivityLevel != "high" {
		t.Fatalf("settings not persisted: %+v", got)
	}
}

func TestInsertMealEntryRollsUpDailyStats(t *testing.T) {
	db := newTestDB(t)
	u, err := GetOrCreateUser(db, 1, "", "", 2000)
	if err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}

	at := time.Date(2026, 8, 26, 13, 30, 0, 0, time.UTC)
	entry := MealEntry{
		UserID: u.ID, ItemsJSON: "[]",
		TotalCalories: 450, TotalProtein: 20, TotalCarbs: 40, TotalFat: 18,
		Confidence: 85, MealType: "lunch", CreatedAt: at,
	}
	if err := InsertMealEntry(db, entry); err != nil {
		t.Fatalf("InsertMealEntry: %v", err)
	}

	entry.TotalCalories = 300
	entry.TotalProtein = 10
	entry.CreatedAt = at.Add(5 * time.Hour)
	entry.MealType = "dinner"
	if err := InsertMealEntry(db, entry); err != nil {
		t.Fatalf("second InsertMealEntry: %v", err)
	}

	stat, err := GetDailyStat(db, u.ID, "2026-08-26")
	if err != nil {
		t.Fatalf("GetDailyStat: %v", err)
	}
	if stat.TotalCalories != 750 || stat.TotalProtein != 30 || stat.MealsCount != 2 {
		t.Fatalf("rollup wrong: %+v", stat)
	}
}

func TestGetDailyStatEmptyDay(t *testing.T) {
	db := newTestDB(t)

	stat, err := GetDailyStat(db, 99, "2026-08-26")
	if err != nil {
		t.Fatalf("GetDailyStat: %v", err)
	}
	if stat.TotalCalories != 0 || stat.MealsCount != 0 || stat.Day != "2026-08-26" {
		t.Fatalf("expected zero stat, got %+v", stat)
	}
}

func TestGetDailyStatsRange(t *testing.T) {
	db := newTestDB(t)
	u, err := GetOrCreateUser(db, 1, "", "", 2000)
	if err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}

	for day := 24; day <= 26; day++ {
		entry := MealEntry{
			UserID: u.ID, ItemsJSON: "[]", TotalCalories: float64(day * 10),
			CreatedAt: time.Date(2026, 8, day, 12, 0, 0, 0, time.UTC),
		}
		if err := InsertMealEntry(db, entry); err != nil {
			t.Fatalf("InsertMealEntry day %d: %v", day, err)
		}
	}

	stats, err := GetDailyStats(db, u.ID, "2026-08-25", "2026-08-26")
	if err != nil {
		t.Fatalf("GetDailyStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 days, got %d", len(stats))
	}
	if stats[0].Day != "2026-08-26" || stats[1].Day != "2026-08-25" {
		t.Fatalf("expected newest first, got %+v", stats)
	}
	if stats[0].TotalCalories != 260 {
		t.Fatalf("unexpected totals: %+v", stats[0])
	}
}

func TestRebuildDailyStats(t *testing.T) {
	db := newTestDB(t)
	u, err := GetOrCreateUser(db, 1, "", "", 2000)
	if err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}

	at := time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		entry := MealEntry{UserID: u.ID, ItemsJSON: "[]", TotalCalories: 200, CreatedAt: at}
		if err := InsertMealEntry(db, entry); err != nil {
			t.Fatalf("InsertMealEntry: %v", err)
		}
	}

	// Corrupt the rollup, then rebuild from the entries.
	if _, err := db.Exec(`UPDATE daily_stats SET total_calories = 1, meals_count = 99`); err != nil {
		t.Fatalf("corrupt rollup: %v", err)
	}
	if err := RebuildDailyStats(db, "2026-08-26"); err != nil {
		t.Fatalf("RebuildDailyStats: %v", err)
	}

	stat, err := GetDailyStat(db, u.ID, "2026-08-26")
	if err != nil {
		t.Fatalf("GetDailyStat: %v", err)
	}
	if stat.TotalCalories != 600 || stat.MealsCount != 3 {
		t.Fatalf("rebuild wrong: %+v", stat)
	}
}
