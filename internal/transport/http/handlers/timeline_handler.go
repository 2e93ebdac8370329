package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/quivio/quivio/internal/service"
	"github.com/quivio/quivio/internal/transport/http/middleware"
)

type TimelineHandler struct {
	timelineService *service.TimelineService
}

func NewTimelineHandler(timelineService *service.TimelineService) *TimelineHandler {
	return &TimelineHandler{timelineService: timelineService}
}

// Calendar returns the month view for /timeline/calendar/{year}/{month}.
func (h *TimelineHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_YEAR", "Year must be a number")
		return
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_MONTH", "Month must be a number")
		return
	}

	resp, err := h.timelineService.Calendar(r.Context(), userID, year, month)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidYear):
			writeError(w, http.StatusBadRequest, "INVALID_YEAR", "Year must be between 2020 and 2030")
		case errors.Is(err, service.ErrInvalidMonth):
			writeError(w, http.StatusBadRequest, "INVALID_MONTH", "Month must be between 1 and 12")
		default:
			log.Printf("ERROR building calendar: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
