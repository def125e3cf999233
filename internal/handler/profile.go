package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/Callypige/dreamology-diary/internal/httputil"
	"github.com/Callypige/dreamology-diary/internal/model"
	"github.com/Callypige/dreamology-diary/internal/service"
	"github.com/Callypige/dreamology-diary/internal/transport/http/middleware"
)

// ProfileHandler groups profile and statistics endpoints.
type ProfileHandler struct {
	profileService *service.ProfileService
	statsService   *service.StatsService
}

func NewProfileHandler(profileService *service.ProfileService, statsService *service.StatsService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		statsService:   statsService,
	}
}

// Get returns the caller's profile, creating it on first read
// GET /api/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Non authentifié")
		return
	}

	profile, err := h.profileService.GetOrCreate(r.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "Utilisateur introuvable")
			return
		}
		log.Printf("[ERROR] Get profile: %v", err)
		httputil.WriteInternalError(w, "Échec de la lecture du profil")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}

// Update applies a partial profile update
// PATCH /api/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Non authentifié")
		return
	}

	var req model.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Corps de requête invalide")
		return
	}

	profile, err := h.profileService.Update(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrProfileValidation):
			httputil.WriteBadRequest(w, validationMessage(err))
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "Utilisateur introuvable")
		default:
			log.Printf("[ERROR] Update profile: %v", err)
			httputil.WriteInternalError(w, "Échec de la mise à jour du profil")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}

// Stats returns the caller's statistics snapshot, recomputed on every call
// GET /api/profile/stats
func (h *ProfileHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Non authentifié")
		return
	}

	stats, err := h.statsService.Compute(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] Compute stats: %v", err)
		httputil.WriteInternalError(w, "Échec du calcul des statistiques")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, stats)
}
