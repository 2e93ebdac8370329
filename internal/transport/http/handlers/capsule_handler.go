package handlers

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/quivio/quivio/internal/domain"
	"github.com/quivio/quivio/internal/service"
	"github.com/quivio/quivio/internal/transport/http/middleware"
	"github.com/quivio/quivio/pkg/validator"
)

// maxCapsuleForm bounds the multipart form: 10 files x 50MB plus headroom.
const maxCapsuleForm = 10*50<<20 + 1<<20

type CapsuleHandler struct {
	capsuleService *service.CapsuleService
}

func NewCapsuleHandler(capsuleService *service.CapsuleService) *CapsuleHandler {
	return &CapsuleHandler{capsuleService: capsuleService}
}

// Create handles the single-recipient multipart form: title, message,
// open_date, is_private, recipient_email and up to 10 files.
func (h *CapsuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := r.ParseMultipartForm(maxCapsuleForm); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "Invalid multipart form")
		return
	}

	input := service.CreateCapsuleInput{
		Title:          r.FormValue("title"),
		Message:        r.FormValue("message"),
		OpenDate:       r.FormValue("open_date"),
		IsPrivate:      r.FormValue("is_private") == "true",
		RecipientEmail: r.FormValue("recipient_email"),
	}

	h.createFromForm(w, r, userID, input)
}

// CreateWithRecipients handles the multi-recipient form: recipient_emails is
// a comma-separated list, send_to_self adds the owner as a recipient.
func (h *CapsuleHandler) CreateWithRecipients(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := r.ParseMultipartForm(maxCapsuleForm); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "Invalid multipart form")
		return
	}

	var emails []string
	if raw := strings.TrimSpace(r.FormValue("recipient_emails")); raw != "" {
		// Blank segments and whitespace are dropped by the service.
		emails = strings.Split(raw, ",")
	}

	if errs := validator.ValidateRecipientEmails(emails); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	input := service.CreateCapsuleInput{
		Title:           r.FormValue("title"),
		Message:         r.FormValue("message"),
		OpenDate:        r.FormValue("open_date"),
		IsPrivate:       r.FormValue("is_private") == "true",
		RecipientEmails: emails,
		SendToSelf:      r.FormValue("send_to_self") == "true",
	}

	h.createFromForm(w, r, userID, input)
}

func (h *CapsuleHandler) createFromForm(w http.ResponseWriter, r *http.Request, userID uuid.UUID, input service.CreateCapsuleInput) {
	if errs := validator.ValidateCapsule(input.Title, input.Message); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	files, err := readUploads(r, "files")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "Could not read uploaded files")
		return
	}
	input.Files = files

	capsule, err := h.capsuleService.Create(r.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOpenDate):
			writeError(w, http.StatusBadRequest, "INVALID_OPEN_DATE", "Invalid open date, use ISO-8601")
		case errors.Is(err, service.ErrTooManyFiles):
			writeError(w, http.StatusBadRequest, "TOO_MANY_FILES", "Maximum 10 files allowed per capsule")
		case errors.Is(err, service.ErrTooManyRecipients):
			writeError(w, http.StatusBadRequest, "TOO_MANY_RECIPIENTS", "Maximum 30 recipient emails allowed")
		case errors.Is(err, service.ErrInvalidFile):
			writeError(w, http.StatusBadRequest, "INVALID_FILE", err.Error())
		default:
			log.Printf("ERROR creating capsule: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, capsule)
}

func (h *CapsuleHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	capsules, err := h.capsuleService.ListByUser(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR listing capsules: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}
	if capsules == nil {
		capsules = []domain.Capsule{}
	}

	writeJSON(w, http.StatusOK, capsules)
}

func (h *CapsuleHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	capsuleID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid capsule ID")
		return
	}

	capsule, err := h.capsuleService.Get(r.Context(), userID, capsuleID)
	if err != nil {
		if errors.Is(err, service.ErrCapsuleNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Capsule not found")
		} else {
			log.Printf("ERROR loading capsule %s: %v", capsuleID, err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, capsule)
}

// Open transitions a capsule to opened. A capsule whose open date has not
// arrived yet gets a 400 with the remaining time in the message.
func (h *CapsuleHandler) Open(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	capsuleID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid capsule ID")
		return
	}

	capsule, err := h.capsuleService.Open(r.Context(), userID, capsuleID)
	if err != nil {
		var notOpenable *service.NotOpenableError
		switch {
		case errors.Is(err, service.ErrCapsuleNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Capsule not found")
		case errors.Is(err, service.ErrAlreadyOpened):
			writeError(w, http.StatusBadRequest, "ALREADY_OPENED", "Capsule is already opened")
		case errors.As(err, &notOpenable):
			writeError(w, http.StatusBadRequest, "NOT_OPENABLE", notOpenable.Error())
		default:
			log.Printf("ERROR opening capsule %s: %v", capsuleID, err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, capsule)
}

func (h *CapsuleHandler) AddMedia(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	capsuleID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid capsule ID")
		return
	}

	if err := r.ParseMultipartForm(maxCapsuleForm); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "Invalid multipart form")
		return
	}

	files, err := readUploads(r, "files")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "Could not read uploaded files")
		return
	}
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "NO_FILES", "At least one file is required")
		return
	}

	added, err := h.capsuleService.AddMedia(r.Context(), userID, capsuleID, files)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCapsuleNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Capsule not found")
		case errors.Is(err, service.ErrAlreadyOpened):
			writeError(w, http.StatusBadRequest, "ALREADY_OPENED", "Cannot modify an opened capsule")
		case errors.Is(err, service.ErrTooManyFiles):
			writeError(w, http.StatusBadRequest, "TOO_MANY_FILES", "Maximum 10 files allowed per capsule")
		case errors.Is(err, service.ErrInvalidFile):
			writeError(w, http.StatusBadRequest, "INVALID_FILE", err.Error())
		default:
			log.Printf("ERROR adding media to capsule %s: %v", capsuleID, err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"media": added})
}

func (h *CapsuleHandler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	capsuleID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid capsule ID")
		return
	}
	mediaID, err := uuid.Parse(r.PathValue("mediaID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid media ID")
		return
	}

	if err := h.capsuleService.DeleteMedia(r.Context(), userID, capsuleID, mediaID); err != nil {
		switch {
		case errors.Is(err, service.ErrCapsuleNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Capsule not found")
		case errors.Is(err, service.ErrMediaNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Media not found")
		case errors.Is(err, service.ErrAlreadyOpened):
			writeError(w, http.StatusBadRequest, "ALREADY_OPENED", "Cannot modify an opened capsule")
		default:
			log.Printf("ERROR deleting media %s: %v", mediaID, err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// readUploads drains every file under the given form field into memory.
func readUploads(r *http.Request, field string) ([]service.FileUpload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	var uploads []service.FileUpload
	for _, fh := range r.MultipartForm.File[field] {
		upload, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}
	return uploads, nil
}

func readUpload(fh *multipart.FileHeader) (service.FileUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return service.FileUpload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return service.FileUpload{}, err
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return service.FileUpload{
		Filename:    fh.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func parseIntQuery(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
