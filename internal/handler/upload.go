package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/Callypige/dreamology-diary/internal/httputil"
	"github.com/Callypige/dreamology-diary/internal/model"
	"github.com/Callypige/dreamology-diary/internal/service"
	"github.com/Callypige/dreamology-diary/internal/transport/http/middleware"
)

// UploadHandler groups media upload endpoints.
type UploadHandler struct {
	mediaService   *service.MediaService
	profileService *service.ProfileService
}

func NewUploadHandler(mediaService *service.MediaService, profileService *service.ProfileService) *UploadHandler {
	return &UploadHandler{
		mediaService:   mediaService,
		profileService: profileService,
	}
}

// Audio stores a voice note under the caller's prefix
// POST /api/upload/audio (multipart: audio, optional dreamId)
func (h *UploadHandler) Audio(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Non authentifié")
		return
	}

	maxFormSize := int64(model.MaxAudioSizeBytes) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.WriteBadRequest(w, "Content-Type doit être multipart/form-data")
			return
		}
		if strings.Contains(err.Error(), "request body too large") {
			httputil.WritePayloadTooLarge(w, "La note vocale dépasse la limite de 15 Mo")
			return
		}
		httputil.WriteBadRequest(w, "Formulaire invalide")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		httputil.WriteBadRequest(w, "Le fichier audio est requis")
		return
	}
	defer file.Close()

	dreamID := r.FormValue("dreamId")

	result, err := h.mediaService.UploadAudioNote(r.Context(), userID, dreamID, file, header)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFileTooLarge):
			httputil.WriteError(w, http.StatusRequestEntityTooLarge, model.CodeFileTooLarge, "La note vocale dépasse la limite de 15 Mo")
		case errors.Is(err, model.ErrInvalidAudioType):
			httputil.WriteBadRequestWithCode(w, model.CodeInvalidAudioType, "Format audio non supporté. Formats acceptés : webm, mp3, wav, m4a, ogg")
		default:
			log.Printf("[ERROR] Upload audio: %v", err)
			httputil.WriteInternalError(w, "Échec du téléversement audio")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.AudioUploadResponse{
		Success:  true,
		AudioURL: result.URL,
		Message:  "Note vocale enregistrée",
	})
}

// Avatar normalizes and stores a profile picture, then points the profile
// at it
// POST /api/upload/avatar (multipart: avatar)
func (h *UploadHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Non authentifié")
		return
	}

	maxFormSize := int64(model.MaxAvatarSizeBytes) + 1024*1024
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.WriteBadRequest(w, "Content-Type doit être multipart/form-data")
			return
		}
		if strings.Contains(err.Error(), "request body too large") {
			httputil.WritePayloadTooLarge(w, "L'image dépasse la limite de 5 Mo")
			return
		}
		httputil.WriteBadRequest(w, "Formulaire invalide")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		httputil.WriteBadRequest(w, "Le fichier image est requis")
		return
	}
	defer file.Close()

	result, err := h.mediaService.UploadAvatar(r.Context(), file, header)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFileTooLarge):
			httputil.WriteError(w, http.StatusRequestEntityTooLarge, model.CodeFileTooLarge, "L'image dépasse la limite de 5 Mo")
		case errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Format d'image non supporté. Formats acceptés : jpeg, png, gif, webp")
		default:
			log.Printf("[ERROR] Upload avatar: %v", err)
			httputil.WriteInternalError(w, "Échec du téléversement de l'image")
		}
		return
	}

	profile, err := h.profileService.Update(r.Context(), userID, &model.UpdateProfileRequest{AvatarURL: &result.URL})
	if err != nil {
		log.Printf("[ERROR] Upload avatar: attach to profile user=%d: %v", userID, err)
		httputil.WriteInternalError(w, "Échec de la mise à jour du profil")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"avatarUrl": result.URL,
		"profile":   profile,
	})
}
