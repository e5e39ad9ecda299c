package main

import (
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"
)

const maxUploadBytes = 10 << 20

// Server exposes the analysis pipeline and nutrition history over HTTP. The
// chat-bot layer in front of it owns all presentation concerns; this API
// only moves data.
type Server struct {
	db       *sql.DB
	analyzer *Analyzer
	cfg      Config
}

func NewServer(db *sql.DB, analyzer *Analyzer, cfg Config) *Server {
	return &Server{db: db, analyzer: analyzer, cfg: cfg}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/settings", s.handleSettings)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type analyzeResponse struct {
	Analysis Aggregate `json:"analysis"`
	Stored   bool      `json:"stored"`
	Daily    DailyStat `json:"daily"`
	Goal     int       `json:"daily_calorie_goal"`
}

// handleAnalyze accepts a food photo as the raw request body, runs the
// pipeline, and stores a meal entry when the photo was recognized as food.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	telegramID, ok := telegramIDParam(w, r)
	if !ok {
		return
	}

	imageBytes, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "image too large")
		return
	}
	if len(imageBytes) == 0 {
		writeError(w, http.StatusBadRequest, "empty image body")
		return
	}

	user, err := GetOrCreateUser(s.db, telegramID, r.URL.Query().Get("username"), r.URL.Query().Get("first_name"), s.cfg.DefaultDailyGoal)
	if err != nil {
		log.Printf("analyze user telegram_id=%d error: %v", telegramID, err)
		writeError(w, http.StatusInternalServerError, "user lookup failed")
		return
	}

	result := s.analyzer.AnalyzeImage(r.Context(), imageBytes)

	// Confidence 0 with no calories means no food was recognized; that is a
	// business outcome, reported but not recorded.
	now := time.Now()
	stored := false
	if result.Confidence > 0 && result.TotalCalories > 0 {
		itemsJSON, err := json.Marshal(result.Items)
		if err != nil {
			itemsJSON = []byte("[]")
		}
		entry := MealEntry{
			UserID:        user.ID,
			ItemsJSON:     string(itemsJSON),
			TotalCalories: result.TotalCalories,
			TotalProtein:  result.TotalProtein,
			TotalCarbs:    result.TotalCarbs,
			TotalFat:      result.TotalFat,
			Confidence:    result.Confidence,
			MealType:      MealTypeAt(now),
			PhotoHash:     cacheKey(imageBytes),
			CreatedAt:     now,
		}
		if err := InsertMealEntry(s.db, entry); err != nil {
			log.Printf("analyze store user=%d error: %v", user.ID, err)
		} else {
			stored = true
		}
	}

	daily, err := GetDailyStat(s.db, user.ID, now.Format(dayFormat))
	if err != nil {
		log.Printf("analyze daily stat user=%d error: %v", user.ID, err)
	}
	writeJSON(w, http.StatusOK, analyzeResponse{
		Analysis: result,
		Stored:   stored,
		Daily:    daily,
		Goal:     user.DailyCalorieGoal,
	})
}

type statsResponse struct {
	Days []DailyStat `json:"days"`
	Goal int         `json:"daily_calorie_goal"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	telegramID, ok := telegramIDParam(w, r)
	if !ok {
		return
	}

	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 90 {
			writeError(w, http.StatusBadRequest, "days must be between 1 and 90")
			return
		}
		days = parsed
	}

	user, err := GetUserByTelegramID(s.db, telegramID)
	if err == sql.ErrNoRows {
		writeError(w, http.StatusNotFound, "unknown user")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "user lookup failed")
		return
	}

	now := time.Now()
	from := now.AddDate(0, 0, -(days - 1)).Format(dayFormat)
	stats, err := GetDailyStats(s.db, user.ID, from, now.Format(dayFormat))
	if err != nil {
		log.Printf("stats user=%d error: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "stats query failed")
		return
	}
	if stats == nil {
		stats = []DailyStat{}
	}
	writeJSON(w, http.StatusOK, statsResponse{Days: stats, Goal: user.DailyCalorieGoal})
}

type settingsRequest struct {
	DailyCalorieGoal *int     `json:"daily_calorie_goal"`
	WeightKg         *float64 `json:"weight_kg"`
	HeightCm         *float64 `json:"height_cm"`
	Age              *int     `json:"age"`
	Gender           *string  `json:"gender"`
	ActivityLevel    *string  `json:"activity_level"`
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	telegramID, ok := telegramIDParam(w, r)
	if !ok {
		return
	}

	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := GetOrCreateUser(s.db, telegramID, "", "", s.cfg.DefaultDailyGoal)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "user lookup failed")
		return
	}

	if req.DailyCalorieGoal != nil {
		if *req.DailyCalorieGoal < 500 || *req.DailyCalorieGoal > 10000 {
			writeError(w, http.StatusBadRequest, "daily_calorie_goal must be between 500 and 10000")
			return
		}
		user.DailyCalorieGoal = *req.DailyCalorieGoal
	}
	if req.WeightKg != nil {
		if *req.WeightKg < 20 || *req.WeightKg > 300 {
			writeError(w, http.StatusBadRequest, "weight_kg must be between 20 and 300")
			return
		}
		user.WeightKg = *req.WeightKg
	}
	if req.HeightCm != nil {
		user.HeightCm = *req.HeightCm
	}
	if req.Age != nil {
		user.Age = *req.Age
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}
	if req.ActivityLevel != nil {
		user.ActivityLevel = *req.ActivityLevel
	}

	if err := SaveUserSettings(s.db, user); err != nil {
		log.Printf("settings save user=%d error: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "settings save failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"daily_calorie_goal": user.DailyCalorieGoal,
		"weight_kg":          user.WeightKg,
		"height_cm":          user.HeightCm,
		"age":                user.Age,
		"gender":             user.Gender,
		"activity_level":     user.ActivityLevel,
	})
}

func telegramIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("telegram_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "telegram_id query parameter required")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
