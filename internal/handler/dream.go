package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Callypige/dreamology-diary/internal/httputil"
	"github.com/Callypige/dreamology-diary/internal/model"
	"github.com/Callypige/dreamology-diary/internal/service"
	"github.com/Callypige/dreamology-diary/internal/transport/http/middleware"
)

// DreamHandler groups dream CRUD endpoints.
type DreamHandler struct {
	dreamService *service.DreamService
}

func NewDreamHandler(dreamService *service.DreamService) *DreamHandler {
	return &DreamHandler{dreamService: dreamService}
}

// validationMessage strips the sentinel prefix so the client sees only the
// localized message.
func validationMessage(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx != -1 {
		return msg[idx+2:]
	}
	return msg
}

// Create handles dream creation
// POST /api/dreams
func (h *DreamHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Non authentifié")
		return
	}

	var req model.CreateDreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Corps de requête invalide")
		return
	}

	dream, err := h.dreamService.Create(r.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, model.ErrDreamValidation) {
			httputil.WriteBadRequest(w, validationMessage(err))
			return
		}
		log.Printf("[ERROR] Create dream: %v", err)
		httputil.WriteInternalError(w, "Échec de l'enregistrement du rêve")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, dream)
}

// Get returns a single dream owned by the caller
// GET /api/dreams/{id}
func (h *DreamHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Non authentifié")
		return
	}

	dreamID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Identifiant de rêve invalide")
		return
	}

	dream, err := h.dreamService.Get(r.Context(), dreamID, userID)
	if err != nil {
		if errors.Is(err, model.ErrDreamNotFound) {
			httputil.WriteNotFound(w, "Rêve introuvable")
			return
		}
		log.Printf("[ERROR] Get dream: %v", err)
		httputil.WriteInternalError(w, "Échec de la lecture du rêve")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, dream)
}

// Update applies a partial update
// PATCH /api/dreams/{id}
func (h *DreamHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Non authentifié")
		return
	}

	dreamID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Identifiant de rêve invalide")
		return
	}

	var req model.UpdateDreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Corps de requête invalide")
		return
	}

	dream, err := h.dreamService.Update(r.Context(), dreamID, userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrDreamNotFound):
			httputil.WriteNotFound(w, "Rêve introuvable")
		case errors.Is(err, model.ErrDreamValidation):
			httputil.WriteBadRequest(w, validationMessage(err))
		default:
			log.Printf("[ERROR] Update dream: %v", err)
			httputil.WriteInternalError(w, "Échec de la mise à jour du rêve")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, dream)
}

// Delete removes a dream
// DELETE /api/dreams/{id}
func (h *DreamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, chi.URLParam(r, "id"))
}

// DeleteByQuery removes a dream addressed by query parameter, the shape the
// historical client used
// DELETE /api/dreams?id=
func (h *DreamHandler) DeleteByQuery(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, r.URL.Query().Get("id"))
}

func (h *DreamHandler) deleteByID(w http.ResponseWriter, r *http.Request, idStr string) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Non authentifié")
		return
	}

	dreamID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Identifiant de rêve invalide")
		return
	}

	if err := h.dreamService.Delete(r.Context(), dreamID, userID); err != nil {
		if errors.Is(err, model.ErrDreamNotFound) {
			httputil.WriteNotFound(w, "Rêve introuvable")
			return
		}
		log.Printf("[ERROR] Delete dream: %v", err)
		httputil.WriteInternalError(w, "Échec de la suppression du rêve")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Rêve supprimé",
	})
}

// List returns one page of the caller's dreams
// GET /api/dreams
func (h *DreamHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Non authentifié")
		return
	}

	filter, page, limit := ParseDreamQuery(r.URL.Query())

	resp, err := h.dreamService.List(r.Context(), userID, filter, page, limit)
	if err != nil {
		log.Printf("[ERROR] List dreams: %v", err)
		httputil.WriteInternalError(w, "Échec de la lecture des rêves")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// ParseDreamQuery builds the typed filter and pagination values from query
// parameters. Absent or malformed values mean "no constraint"; pagination
// falls back to its defaults.
func ParseDreamQuery(q url.Values) (model.DreamFilter, int, int) {
	filter := model.DreamFilter{
		Type:      q.Get("type"),
		Mood:      q.Get("mood"),
		Tag:       q.Get("tag"),
		Day:       q.Get("day"),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
	}

	if v := q.Get("recurring"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filter.Recurring = &b
		}
	}

	if v := q.Get("dreamScore"); v != "" {
		if score, err := strconv.Atoi(v); err == nil && score > 0 {
			filter.MinDreamScore = score
		}
	}

	if v := q.Get("hasAudio"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filter.HasAudio = b
		}
	}

	page := 1
	if v := q.Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}

	limit := service.DefaultPageSize
	if v := q.Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 {
			limit = l
		}
	}

	return filter, page, limit
}
