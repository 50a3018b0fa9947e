package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/tasker-api/internal/api/shared"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/service"
)

// SessionCookie describes the cookie that carries the session token for
// browser clients.
type SessionCookie struct {
	Name string
	// Lifetime of zero makes a browser-session cookie.
	Lifetime time.Duration
	Secure   bool
}

// UserHandler handles account, session and avatar requests.
type UserHandler struct {
	users          service.UserService
	cookie         SessionCookie
	maxAvatarBytes int64
	logger         *slog.Logger
}

// NewUserHandler creates a new UserHandler with the given dependencies.
func NewUserHandler(
	users service.UserService,
	cookie SessionCookie,
	maxAvatarBytes int64,
	logger *slog.Logger,
) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if cookie.Name == "" {
		cookie.Name = "auth_token"
	}
	return &UserHandler{
		users:          users,
		cookie:         cookie,
		maxAvatarBytes: maxAvatarBytes,
		logger:         logger.With(slog.String("component", "user_handler")),
	}
}

// Register handles POST /users.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, token, err := h.users.Register(r.Context(), service.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Age:      req.Age,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("user registered",
		slog.String("user_id", user.ID.String()))

	h.setSessionCookie(w, token)
	shared.RespondWithJSON(w, r, http.StatusCreated, AuthResponse{
		User:  userToResponse(user),
		Token: token,
	})
}

// Login handles POST /users/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}

	h.setSessionCookie(w, token)
	shared.RespondWithJSON(w, r, http.StatusOK, AuthResponse{
		User:  userToResponse(user),
		Token: token,
	})
}

// Logout handles POST /users/logout. Only the presented token is revoked.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, token, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.users.Logout(r.Context(), user.ID, token); err != nil {
		HandleAPIError(w, r, err, "Failed to logout")
		return
	}

	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusOK)
}

// LogoutAll handles POST /users/logoutAll.
func (h *UserHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	user, _, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.users.LogoutAll(r.Context(), user.ID); err != nil {
		HandleAPIError(w, r, err, "Failed to logout")
		return
	}

	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusOK)
}

// Me handles GET /users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, _, ok := requireUser(w, r)
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// UpdateMe handles PATCH /users/me.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, _, ok := requireUser(w, r)
	if !ok {
		return
	}

	body, err := shared.ReadBody(r)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, msgInvalidRequestBody, err)
		return
	}

	patch, err := domain.ParseUserPatch(body)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	updated, err := h.users.UpdateProfile(r.Context(), user.ID, patch)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(updated))
}

// DeleteMe handles DELETE /users/me. The account's tasks go with it.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user, _, ok := requireUser(w, r)
	if !ok {
		return
	}

	deleted, err := h.users.DeleteAccount(r.Context(), user.ID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete user")
		return
	}

	h.clearSessionCookie(w)
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(deleted))
}

func (h *UserHandler) setSessionCookie(w http.ResponseWriter, token string) {
	cookie := &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if h.cookie.Lifetime > 0 {
		cookie.MaxAge = int(h.cookie.Lifetime.Seconds())
	}
	http.SetCookie(w, cookie)
}

func (h *UserHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
