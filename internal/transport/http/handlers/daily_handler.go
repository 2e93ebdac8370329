package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/quivio/quivio/internal/service"
	"github.com/quivio/quivio/internal/transport/http/middleware"
	"github.com/quivio/quivio/pkg/validator"
)

type DailyHandler struct {
	dailyService *service.DailyService
}

func NewDailyHandler(dailyService *service.DailyService) *DailyHandler {
	return &DailyHandler{dailyService: dailyService}
}

// SaveMood upserts the mood for ?date=YYYY-MM-DD (default today).
func (h *DailyHandler) SaveMood(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.MoodInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateMood(input.MoodLevel, input.Note); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	mood, err := h.dailyService.SaveMood(r.Context(), userID, r.URL.Query().Get("date"), input)
	if err != nil {
		writeDailyError(w, "saving mood", err)
		return
	}

	writeJSON(w, http.StatusOK, mood)
}

func (h *DailyHandler) GetMood(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	view, err := h.dailyService.GetMood(r.Context(), userID, r.URL.Query().Get("date"))
	if err != nil {
		writeDailyError(w, "loading mood", err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// SaveDiary upserts the diary entry for ?date=YYYY-MM-DD (default today).
func (h *DailyHandler) SaveDiary(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.DiaryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateDiary(input.Content); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	entry, err := h.dailyService.SaveDiary(r.Context(), userID, r.URL.Query().Get("date"), input)
	if err != nil {
		writeDailyError(w, "saving diary", err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *DailyHandler) GetDiary(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	view, err := h.dailyService.GetDiary(r.Context(), userID, r.URL.Query().Get("date"))
	if err != nil {
		writeDailyError(w, "loading diary", err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// GetEntry returns the full daily entry: mood, diary and photos.
func (h *DailyHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	view, err := h.dailyService.GetEntry(r.Context(), userID, r.URL.Query().Get("date"))
	if err != nil {
		writeDailyError(w, "loading entry", err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func writeDailyError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidEntryDate):
		writeError(w, http.StatusBadRequest, "INVALID_DATE", "Invalid date format, use YYYY-MM-DD")
	case errors.Is(err, service.ErrEditWindowClosed):
		writeError(w, http.StatusBadRequest, "EDIT_WINDOW_CLOSED", "Cannot edit entries after 11:59 PM")
	default:
		log.Printf("ERROR %s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}
