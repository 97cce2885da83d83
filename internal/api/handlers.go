package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/caffeinsmuggler/timesheet-ai/internal/apperr"
	"github.com/caffeinsmuggler/timesheet-ai/internal/models"
	"github.com/caffeinsmuggler/timesheet-ai/internal/review"
	"github.com/caffeinsmuggler/timesheet-ai/internal/roster"
)

const maxUploadBytes = 20 << 20

// Handler holds API route handlers.
type Handler struct {
	svc    *review.Service
	roster *roster.Store
}

// NewHandler creates a new Handler.
func NewHandler(svc *review.Service, rost *roster.Store) *Handler {
	return &Handler{svc: svc, roster: rost}
}

// writeError maps the error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, op string, err error) {
	var unresolved *apperr.UnresolvedError
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.As(err, &unresolved):
		writeJSON(w, http.StatusConflict, errResponse{Error: "unresolved items remain", ItemIDs: unresolved.ItemIDs})
	case errors.Is(err, apperr.ErrFinalized):
		writeJSON(w, http.StatusConflict, errorBody("session is finalized"))
	case errors.Is(err, apperr.ErrCollaborator):
		writeJSON(w, http.StatusBadGateway, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// CreateSession handles POST /sessions.
//
//	@Summary		Create a review session from a sheet image
//	@Tags			sessions
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			image	formData	file	true	"Sheet image (PNG or JPEG)"
//	@Param			file_id	formData	string	false	"Source file identifier; defaults to the upload filename"
//	@Success		201		{object}	SessionDetail
//	@Failure		400		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions [post]
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("form file 'image' is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read upload"))
		return
	}

	fileID := r.FormValue("file_id")
	if fileID == "" {
		name := header.Filename
		if i := strings.LastIndex(name, "."); i > 0 {
			name = name[:i]
		}
		fileID = name
	}

	sess, err := h.svc.CreateSession(r.Context(), fileID, data)
	if err != nil {
		writeError(w, "create session", err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// ListSessions handles GET /sessions.
//
//	@Summary		List review sessions
//	@Tags			sessions
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			status	query		string	false	"Filter"	Enums(open, finalized)
//	@Success		200		{object}	SessionListResponse
//	@Security		BearerAuth
//	@Router			/sessions [get]
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	rows, total, err := h.svc.List(r.Context(), limit, offset, q.Get("status"))
	if err != nil {
		writeError(w, "list sessions", err)
		return
	}
	sessions := make([]SessionSummary, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, summaryFromRow(row))
	}
	writeJSON(w, http.StatusOK, SessionListResponse{Sessions: sessions, Total: total})
}

// GetSession handles GET /sessions/{sessionID}.
//
//	@Summary		Get one session with all items
//	@Tags			sessions
//	@Produce		json
//	@Param			sessionID	path		string	true	"Session id"
//	@Success		200			{object}	SessionDetail
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{sessionID} [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, "get session", err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// DeleteSession handles DELETE /sessions/{sessionID}.
//
//	@Summary	Delete a session
//	@Tags		sessions
//	@Param		sessionID	path	string	true	"Session id"
//	@Success	204			"Session deleted"
//	@Failure	404			{object}	errResponse
//	@Security	BearerAuth
//	@Router		/sessions/{sessionID} [delete]
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, "delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetImage handles GET /sessions/{sessionID}/image. The stored sheet image
// never changes for a session, so it is served immutable.
func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Image(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, "get image", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// GetCrop handles GET /sessions/{sessionID}/items/{itemID}/crop. Clients key
// the URL by the item rev (?rev=N), so the response can be cached immutably;
// a mutation bumps the rev and the stale URL simply falls out of use.
//
//	@Summary		Get the crop thumbnail for one item
//	@Tags			items
//	@Produce		png
//	@Param			sessionID	path	string	true	"Session id"
//	@Param			itemID		path	string	true	"Item id"
//	@Param			rev			query	int		false	"Item revision (cache key)"
//	@Success		200			"PNG thumbnail"
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{sessionID}/items/{itemID}/crop [get]
func (h *Handler) GetCrop(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	itemID := chi.URLParam(r, "itemID")

	thumb, rev, err := h.svc.Crop(r.Context(), sessionID, itemID)
	if err != nil {
		writeError(w, "get crop", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("ETag", fmt.Sprintf("%q", itemID+"-"+strconv.Itoa(rev)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(thumb)
}

// PatchItem handles PATCH /sessions/{sessionID}/items/{itemID}.
//
//	@Summary		Update one item (confirm a name, edit raw text, move column)
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			sessionID	path		string				true	"Session id"
//	@Param			itemID		path		string				true	"Item id"
//	@Param			body		body		PatchItemRequest	true	"Fields to change"
//	@Success		200			{object}	ItemDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{sessionID}/items/{itemID} [patch]
func (h *Handler) PatchItem(w http.ResponseWriter, r *http.Request) {
	var req PatchItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	item, err := h.svc.PatchItem(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "itemID"), review.ItemPatch{
		SelectedName: req.SelectedName,
		RawName:      req.RawName,
		LeaveType:    req.LeaveType,
		Column:       req.Column,
	})
	if err != nil {
		writeError(w, "patch item", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// ClearItem handles POST /sessions/{sessionID}/items/{itemID}/clear.
func (h *Handler) ClearItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.ClearItem(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, "clear item", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// ReextractItem handles POST /sessions/{sessionID}/items/{itemID}/reocr.
// The body is optional; a box in it replaces the item's region first.
//
//	@Summary		Re-run recognition on one item's image region
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			sessionID	path		string			true	"Session id"
//	@Param			itemID		path		string			true	"Item id"
//	@Param			body		body		ReocrRequest	false	"Replacement region"
//	@Success		200			{object}	ItemDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		502			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{sessionID}/items/{itemID}/reocr [post]
func (h *Handler) ReextractItem(w http.ResponseWriter, r *http.Request) {
	var req ReocrRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	item, err := h.svc.ReextractItem(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "itemID"), req.Box)
	if err != nil {
		writeError(w, "reextract item", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /sessions/{sessionID}/items/{itemID}.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteItem(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "itemID")); err != nil {
		writeError(w, "delete item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddItem handles POST /sessions/{sessionID}/items.
//
//	@Summary		Add an item from a supplied name or a reviewer-drawn region
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			sessionID	path		string			true	"Session id"
//	@Param			body		body		AddItemRequest	true	"Name to match, or region to recognize"
//	@Success		201			{object}	ItemDetail
//	@Failure		400			{object}	errResponse
//	@Failure		502			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{sessionID}/items [post]
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	item, err := h.svc.AddItem(r.Context(), chi.URLParam(r, "sessionID"), review.AddItemInput{
		Column:    req.Column,
		RawName:   req.RawName,
		Box:       req.Box,
		LeaveType: req.LeaveType,
	})
	if err != nil {
		writeError(w, "add item", err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// LLMFill handles POST /sessions/{sessionID}/llm-fill.
func (h *Handler) LLMFill(w http.ResponseWriter, r *http.Request) {
	added, err := h.svc.LLMFill(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, "llm fill", err)
		return
	}
	if added == nil {
		added = []models.ReviewItem{}
	}
	writeJSON(w, http.StatusOK, LLMFillResponse{Added: added})
}

// Finalize handles POST /sessions/{sessionID}/finalize.
//
//	@Summary		Finalize a session and write the export snapshot
//	@Tags			sessions
//	@Produce		json
//	@Param			sessionID	path		string	true	"Session id"
//	@Success		200			{object}	models.Export
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{sessionID}/finalize [post]
func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	exp, err := h.svc.Finalize(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, "finalize", err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

// Employees handles GET /employees: roster autocomplete for the reviewer UI.
//
//	@Summary		Search roster names
//	@Tags			employees
//	@Produce		json
//	@Param			q		query		string	false	"Substring to match"
//	@Param			shift	query		string	false	"Shift"	Enums(DAY, NIGHT)
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	EmployeesResponse
//	@Security		BearerAuth
//	@Router			/employees [get]
func (h *Handler) Employees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	shift := models.ShiftDay
	switch strings.ToUpper(q.Get("shift")) {
	case "", string(models.ShiftDay):
	case string(models.ShiftNight):
		shift = models.ShiftNight
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("shift must be DAY or NIGHT"))
		return
	}

	names := h.roster.Search(q.Get("q"), shift, limit)
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, EmployeesResponse{Names: names})
}
