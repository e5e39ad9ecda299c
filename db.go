package main

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const dayFormat = "2006-01-02"

type User struct {
	ID               int64
	TelegramID       int64
	Username         string
	FirstName        string
	DailyCalorieGoal int
	WeightKg         float64
	HeightCm         float64
	Age              int
	Gender           string // "male" or "female"
	ActivityLevel    string // "low", "moderate", or "high"
	IsActive         bool
	CreatedAt        time.Time
}

type MealEntry struct {
	ID            int64
	UserID        int64
	ItemsJSON     string // reconciled items as JSON
	TotalCalories float64
	TotalProtein  float64
	TotalCarbs    float64
	TotalFat      float64
	Confidence    float64
	MealType      string // "breakfast", "lunch", "dinner", or "snack"
	PhotoHash     string
	CreatedAt     time.Time
}

type DailyStat struct {
	UserID        int64   `json:"-"`
	Day           string  `json:"day"` // YYYY-MM-DD
	TotalCalories float64 `json:"total_calories"`
	TotalProtein  float64 `json:"total_protein_g"`
	TotalCarbs    float64 `json:"total_carbs_g"`
	TotalFat      float64 `json:"total_fat_g"`
	MealsCount    int     `json:"meals_count"`
}

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		telegram_id        INTEGER UNIQUE NOT NULL,
		username           TEXT DEFAULT '',
		first_name         TEXT DEFAULT '',
		daily_calorie_goal INTEGER DEFAULT 2000,
		weight_kg          REAL DEFAULT 0,
		height_cm          REAL DEFAULT 0,
		age                INTEGER DEFAULT 0,
		gender             TEXT DEFAULT '',
		activity_level     TEXT DEFAULT 'moderate',
		is_active          INTEGER DEFAULT 1,
		created_at         DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS meal_entries (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id        INTEGER NOT NULL,
		items_json     TEXT NOT NULL DEFAULT '[]',
		total_calories REAL NOT NULL,
		total_protein  REAL DEFAULT 0,
		total_carbs    REAL DEFAULT 0,
		total_fat      REAL DEFAULT 0,
		confidence     REAL DEFAULT 0,
		meal_type      TEXT DEFAULT '',
		photo_hash     TEXT DEFAULT '',
		created_at     DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_meal_entries_user_created ON meal_entries(user_id, created_at);

	CREATE TABLE IF NOT EXISTS daily_stats (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id        INTEGER NOT NULL,
		day            TEXT NOT NULL,
		total_calories REAL DEFAULT 0,
		total_protein  REAL DEFAULT 0,
		total_carbs    REAL DEFAULT 0,
		total_fat      REAL DEFAULT 0,
		meals_count    INTEGER DEFAULT 0,
		updated_at     DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, day)
	);
	CREATE INDEX IF NOT EXISTS idx_daily_stats_user_day ON daily_stats(user_id, day);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return db, nil
}

// GetOrCreateUser fetches a user by Telegram ID, creating it with the given
// default daily goal on first contact.
func GetOrCreateUser(db *sql.DB, telegramID int64, username, firstName string, defaultGoal int) (User, error) {
	user, err := GetUserByTelegramID(db, telegramID)
	if err == nil {
		return user, nil
	}
	if err != sql.ErrNoRows {
		return User{}, err
	}

	_, err = db.Exec(
		`INSERT INTO users (telegram_id, username, first_name, daily_calorie_goal)
		 VALUES (?, ?, ?, ?)`,
		telegramID, username, firstName, defaultGoal,
	)
	if err != nil {
		return User{}, err
	}
	return GetUserByTelegramID(db, telegramID)
}

func GetUserByTelegramID(db *sql.DB, telegramID int64) (User, error) {
	var u User
	err := db.QueryRow(
		`SELECT id, telegram_id, username, first_name, daily_calorie_goal,
		        weight_kg, height_cm, age, gender, activity_level, is_active, created_at
		 FROM users WHERE telegram_id = ?`,
		telegramID,
	).Scan(
		&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.DailyCalorieGoal,
		&u.WeightKg, &u.HeightCm, &u.Age, &u.Gender, &u.ActivityLevel,
		&u.IsActive, &u.CreatedAt,
	)
	return u, err
}

// SaveUserSettings persists the tunable profile fields of a user.
func SaveUserSettings(db *sql.DB, u User) error {
	_, err := db.Exec(
		`UPDATE users
		 SET daily_calorie_goal = ?, weight_kg = ?, height_cm = ?, age = ?,
		     gender = ?, activity_level = ?
		 WHERE id = ?`,
		u.DailyCalorieGoal, u.WeightKg, u.HeightCm, u.Age,
		u.Gender, u.ActivityLevel, u.ID,
	)
	return err
}

// InsertMealEntry stores one analyzed meal and folds it into the user's
// daily rollup in the same transaction.
func InsertMealEntry(db *sql.DB, entry MealEntry) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO meal_entries
		 (user_id, items_json, total_calories, total_protein, total_carbs, total_fat, confidence, meal_type, photo_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.UserID, entry.ItemsJSON, entry.TotalCalories, entry.TotalProtein,
		entry.TotalCarbs, entry.TotalFat, entry.Confidence, entry.MealType,
		entry.PhotoHash, entry.CreatedAt,
	)
	if err != nil {
		return err
	}

	day := entry.CreatedAt.Format(dayFormat)
	_, err = tx.Exec(
		`INSERT INTO daily_stats (user_id, day, total_calories, total_protein, total_carbs, total_fat, meals_count)
		 VALUES (?, ?, ?, ?, ?, ?, 1)
		 ON CONFLICT(user_id, day) DO UPDATE SET
		   total_calories = total_calories + excluded.total_calories,
		   total_protein  = total_protein + excluded.total_protein,
		   total_carbs    = total_carbs + excluded.total_carbs,
		   total_fat      = total_fat + excluded.total_fat,
		   meals_count    = meals_count + 1,
		   updated_at     = CURRENT_TIMESTAMP`,
		entry.UserID, day, entry.TotalCalories, entry.TotalProtein,
		entry.TotalCarbs, entry.TotalFat,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// GetDailyStat returns the rollup for one user and day; a day with no meals
// yields a zero-valued stat, not an error.
func GetDailyStat(db *sql.DB, userID int64, day string) (DailyStat, error) {
	s := DailyStat{UserID: userID, Day: day}
	err := db.QueryRow(
		`SELECT total_calories, total_protein, total_carbs, total_fat, meals_count
		 FROM daily_stats WHERE user_id = ? AND day = ?`,
		userID, day,
	).Scan(&s.TotalCalories, &s.TotalProtein, &s.TotalCarbs, &s.TotalFat, &s.MealsCount)
	if err == sql.ErrNoRows {
		return s, nil
	}
	return s, err
}

// GetDailyStats returns the rollups for the inclusive day range, newest
// first.
func GetDailyStats(db *sql.DB, userID int64, fromDay, toDay string) ([]DailyStat, error) {
	rows, err := db.Query(
		`SELECT day, total_calories, total_protein, total_carbs, total_fat, meals_count
		 FROM daily_stats
		 WHERE user_id = ? AND day >= ? AND day <= ?
		 ORDER BY day DESC`,
		userID, fromDay, toDay,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []DailyStat
	for rows.Next() {
		s := DailyStat{UserID: userID}
		if err := rows.Scan(&s.Day, &s.TotalCalories, &s.TotalProtein, &s.TotalCarbs, &s.TotalFat, &s.MealsCount); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// RebuildDailyStats recomputes every user's rollup for one day directly from
// the stored meal entries. Run nightly to repair any drift.
func RebuildDailyStats(db *sql.DB, day string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM daily_stats WHERE day = ?`, day); err != nil {
		return err
	}
	_, err = tx.Exec(
		`INSERT INTO daily_stats (user_id, day, total_calories, total_protein, total_carbs, total_fat, meals_count)
		 SELECT user_id, ?, SUM(total_calories), SUM(total_protein), SUM(total_carbs), SUM(total_fat), COUNT(*)
		 FROM meal_entries
		 WHERE strftime('%Y-%m-%d', created_at) = ?
		 GROUP BY user_id`,
		day, day,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}
