package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/quivio/quivio/internal/service"
	"github.com/quivio/quivio/internal/transport/http/middleware"
)

const maxPhotoForm = 11 << 20 // one image up to 10MB plus form overhead

type PhotoHandler struct {
	photoService *service.PhotoService
}

func NewPhotoHandler(photoService *service.PhotoService) *PhotoHandler {
	return &PhotoHandler{photoService: photoService}
}

// Upload stores one journal photo from a multipart form: file, title,
// optional date, location_lat/location_lng/location_name.
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := r.ParseMultipartForm(maxPhotoForm); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "Invalid multipart form")
		return
	}

	files, err := readUploads(r, "file")
	if err != nil || len(files) == 0 {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "A photo file is required")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Title is required")
		return
	}

	input := service.UploadPhotoInput{
		Title:        title,
		Date:         r.FormValue("date"),
		LocationName: r.FormValue("location_name"),
		File:         files[0],
	}
	input.LocationLat = parseFloatForm(r, "location_lat")
	input.LocationLng = parseFloatForm(r, "location_lng")

	photo, err := h.photoService.Upload(r.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidFile):
			writeError(w, http.StatusBadRequest, "INVALID_FILE", "Photo must be an image up to 10MB")
		case errors.Is(err, service.ErrInvalidEntryDate):
			writeError(w, http.StatusBadRequest, "INVALID_DATE", "Invalid date format, use YYYY-MM-DD")
		default:
			log.Printf("ERROR uploading photo: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, photo)
}

func (h *PhotoHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	photos, err := h.photoService.List(r.Context(), userID, limit, offset)
	if err != nil {
		log.Printf("ERROR listing photos: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, photos)
}

func (h *PhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	photoID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid photo ID")
		return
	}

	if err := h.photoService.Delete(r.Context(), userID, photoID); err != nil {
		if errors.Is(err, service.ErrPhotoNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Photo not found")
		} else {
			log.Printf("ERROR deleting photo %s: %v", photoID, err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func parseFloatForm(r *http.Request, key string) *float64 {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}
