package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/Callypige/dreamology-diary/internal/httputil"
	"github.com/Callypige/dreamology-diary/internal/model"
	"github.com/Callypige/dreamology-diary/internal/service"
	"github.com/Callypige/dreamology-diary/internal/transport/http/middleware"
)

// AuthHandler groups auth-related HTTP endpoints and their dependencies.
type AuthHandler struct {
	userService *service.UserService
	authService *service.AuthService
}

// NewAuthHandler wires dependencies for authentication endpoints.
func NewAuthHandler(userService *service.UserService, authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
	}
}

// Signup handles account creation
// POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Corps de requête invalide")
		return
	}

	if msg, ok := service.ValidateSignup(&req); !ok {
		httputil.WriteBadRequest(w, msg)
		return
	}

	user, err := h.userService.Signup(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrEmailExists):
			httputil.WriteConflict(w, "Cet email est déjà utilisé")
		case errors.Is(err, model.ErrNameExists):
			httputil.WriteConflict(w, "Ce nom est déjà utilisé")
		default:
			httputil.WriteInternalError(w, "Échec de la création du compte")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"user":    user,
		"message": "Compte créé. Vérifiez vos emails pour confirmer votre adresse.",
	})
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Corps de requête invalide")
		return
	}

	if req.Email == "" {
		httputil.WriteBadRequest(w, "L'email est requis")
		return
	}
	if req.Password == "" {
		httputil.WriteBadRequest(w, "Le mot de passe est requis")
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			httputil.WriteUnauthorized(w, "Email ou mot de passe incorrect")
			return
		}
		httputil.WriteInternalError(w, "Échec de la connexion")
		return
	}

	deviceInfo := r.Header.Get("User-Agent")
	ipAddress := h.getClientIP(r)

	tokenPair, err := h.authService.GenerateTokenPair(r.Context(), user.ID, deviceInfo, ipAddress)
	if err != nil {
		httputil.WriteInternalError(w, "Échec de la génération des jetons")
		return
	}

	response := model.LoginResponse{
		User:         user,
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	}
	httputil.WriteJSON(w, http.StatusOK, response)
}

// Me returns the currently authenticated user
// GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Non authentifié")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "Utilisateur introuvable")
			return
		}
		httputil.WriteInternalError(w, "Échec de la lecture du compte")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// Refresh handles token refresh
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req model.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Corps de requête invalide")
		return
	}

	if req.RefreshToken == "" {
		httputil.WriteBadRequest(w, "Le jeton de rafraîchissement est requis")
		return
	}

	deviceInfo := r.Header.Get("User-Agent")
	ipAddress := h.getClientIP(r)

	tokenPair, _, err := h.authService.RefreshTokens(r.Context(), req.RefreshToken, deviceInfo, ipAddress)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrRefreshTokenNotFound):
			httputil.WriteUnauthorized(w, "Jeton de rafraîchissement invalide")
		case errors.Is(err, model.ErrRefreshTokenExpired):
			httputil.WriteUnauthorizedWithCode(w, model.CodeTokenExpired, "Le jeton de rafraîchissement a expiré")
		case errors.Is(err, model.ErrRefreshTokenReused):
			httputil.WriteUnauthorizedWithCode(w, model.CodeTokenReused, "Réutilisation de jeton détectée. Veuillez vous reconnecter.")
		default:
			httputil.WriteInternalError(w, "Échec du rafraîchissement des jetons")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tokenPair)
}

// Logout handles user logout
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req model.LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Corps de requête invalide")
		return
	}

	if req.RefreshToken == "" {
		httputil.WriteBadRequest(w, "Le jeton de rafraîchissement est requis")
		return
	}

	err := h.authService.RevokeRefreshToken(r.Context(), req.RefreshToken)
	if err != nil && !errors.Is(err, model.ErrRefreshTokenNotFound) {
		httputil.WriteInternalError(w, "Échec de la déconnexion")
		return
	}

	// Already-revoked or unknown tokens still report success
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Déconnexion réussie",
	})
}

// LogoutAll handles logout from all devices
// POST /api/auth/logout-all
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Non authentifié")
		return
	}

	if err := h.authService.RevokeAllUserTokens(r.Context(), userID); err != nil {
		httputil.WriteInternalError(w, "Échec de la déconnexion globale")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Déconnecté de tous les appareils",
	})
}

// VerifyEmail consumes a verification token
// POST /api/auth/verify-email
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Corps de requête invalide")
		return
	}
	if req.Token == "" {
		httputil.WriteBadRequest(w, "Le jeton est requis")
		return
	}

	user, err := h.userService.VerifyEmail(r.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrTokenExpired):
			httputil.WriteGone(w, "Ce lien de vérification a expiré. Demandez-en un nouveau.")
		case errors.Is(err, model.ErrTokenInvalid):
			httputil.WriteBadRequest(w, "Lien de vérification invalide")
		default:
			httputil.WriteInternalError(w, "Échec de la vérification")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user":    user,
		"message": "Adresse email confirmée",
	})
}

// ResendVerification reissues a verification token
// POST /api/auth/resend-verification
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Corps de requête invalide")
		return
	}
	if req.Email == "" {
		httputil.WriteBadRequest(w, "L'email est requis")
		return
	}

	if err := h.userService.ResendVerification(r.Context(), req.Email); err != nil {
		if errors.Is(err, model.ErrAlreadyVerified) {
			httputil.WriteBadRequest(w, "Cette adresse est déjà vérifiée")
			return
		}
		httputil.WriteInternalError(w, "Échec de l'envoi")
		return
	}

	// Same response whether or not the address is registered
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Si cet email existe, un lien de vérification a été envoyé",
	})
}

// CheckAvailability applies the pre-signup name/email rules
// POST /api/auth/check-availability
func (h *AuthHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req model.CheckAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Corps de requête invalide")
		return
	}
	if req.Field != "name" && req.Field != "email" {
		httputil.WriteBadRequest(w, "Le champ doit être \"name\" ou \"email\"")
		return
	}
	if strings.TrimSpace(req.Value) == "" {
		httputil.WriteBadRequest(w, "La valeur est requise")
		return
	}

	resp, err := h.userService.CheckAvailability(r.Context(), &req)
	if err != nil {
		httputil.WriteInternalError(w, "Échec de la vérification de disponibilité")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// ForgotPassword issues a password reset token
// POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Corps de requête invalide")
		return
	}
	if req.Email == "" {
		httputil.WriteBadRequest(w, "L'email est requis")
		return
	}

	if err := h.userService.ForgotPassword(r.Context(), req.Email); err != nil {
		httputil.WriteInternalError(w, "Échec de l'envoi")
		return
	}

	// Same response whether or not the address is registered
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Si cet email existe, un lien de réinitialisation a été envoyé",
	})
}

// ResetPassword consumes a reset token
// POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Corps de requête invalide")
		return
	}
	if req.Token == "" {
		httputil.WriteBadRequest(w, "Le jeton est requis")
		return
	}
	if len(req.Password) < service.MinPasswordLength {
		httputil.WriteBadRequest(w, "Le mot de passe doit contenir au moins 6 caractères")
		return
	}
	if req.Password != req.ConfirmPassword {
		httputil.WriteBadRequest(w, "Les mots de passe ne correspondent pas")
		return
	}

	user, err := h.userService.ResetPassword(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrTokenExpired):
			httputil.WriteGone(w, "Ce lien de réinitialisation a expiré. Demandez-en un nouveau.")
		case errors.Is(err, model.ErrTokenInvalid):
			httputil.WriteBadRequest(w, "Lien de réinitialisation invalide")
		default:
			httputil.WriteInternalError(w, "Échec de la réinitialisation")
		}
		return
	}

	// Changing the password invalidates every active session
	if err := h.authService.RevokeAllUserTokens(r.Context(), user.ID); err != nil {
		log.Printf("[ERROR] ResetPassword: revoke sessions user=%d: %v", user.ID, err)
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Mot de passe réinitialisé. Vous pouvez vous reconnecter.",
	})
}

// getClientIP extracts the client IP from the request
func (h *AuthHandler) getClientIP(r *http.Request) string {
	// X-Forwarded-For first (proxied requests)
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return xri
	}

	// RemoteAddr is "IP:port"
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
