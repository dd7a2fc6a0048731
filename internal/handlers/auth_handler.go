package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Sonukamble/TodoApp/internal/auth"
	"github.com/Sonukamble/TodoApp/internal/middleware"
	"github.com/Sonukamble/TodoApp/internal/models"
	"github.com/Sonukamble/TodoApp/internal/views"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AuthService is the interface that wraps methods for authentication business logic.
type AuthService interface {
	// Method Register validates the request and creates an active user.
	//
	// "req" parameter contains username, email, names, password and an optional role.
	//
	// If the request is invalid, an error matching models.ErrValidationFailed is returned.
	// If the username is taken, models.ErrDuplicateUsername is returned.
	// The returned user never carries a plaintext password.
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	// Method Authenticate checks the credentials and returns a new session.
	//
	// Unknown username and wrong password both return models.ErrAuthenticationFailed.
	// Any other error is a store or signing fault.
	Authenticate(ctx context.Context, username, password string) (*models.Session, error)
	// Method Logout ends the caller's session server side when revocation is enabled.
	Logout(ctx context.Context, identity *auth.Identity) error
}

// AuthHandler serves the login and registration pages and the JSON auth endpoints
type AuthHandler struct {
	BaseHandler
	authService  AuthService
	resolver     middleware.IdentityResolver
	secureCookie bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService AuthService,
	resolver middleware.IdentityResolver,
	renderer Renderer,
	secureCookie bool,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		BaseHandler:  BaseHandler{logger: logger, views: renderer},
		authService:  authService,
		resolver:     resolver,
		secureCookie: secureCookie,
	}
}

// RegisterRoutes registers all auth handler routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Get("/", h.LoginPage)
		r.Post("/", h.Login)
		r.Get("/register", h.RegisterPage)
		r.Post("/register", h.RegisterForm)
		r.Post("/user", h.CreateUser)
		r.Post("/user/", h.CreateUser)
		r.Post("/token", h.Token)
		r.Get("/logout", h.Logout)
	})
}

// LoginPage handles GET /auth
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	data := &views.PageData{Title: "Login"}
	if r.URL.Query().Get("registered") != "" {
		data.Flash = "Registration successful, please log in"
	}
	h.render(w, http.StatusOK, views.PageLogin, data)
}

// Login handles POST /auth.
// The form names the username field "email"; "username" is accepted as well.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	data := &views.PageData{Title: "Login"}
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("failed to parse login form", zap.Error(err))
		data.Error = msgUnknownError
		h.render(w, http.StatusBadRequest, views.PageLogin, data)
		return
	}

	username := r.PostFormValue("email")
	if username == "" {
		username = r.PostFormValue("username")
	}
	data.Values = map[string]string{"username": username}

	session, err := h.authService.Authenticate(r.Context(), username, r.PostFormValue("password"))
	if err != nil {
		if errors.Is(err, models.ErrAuthenticationFailed) {
			data.Error = msgAuthenticationFailed
			h.render(w, http.StatusUnauthorized, views.PageLogin, data)
			return
		}
		h.logger.Error("failed to login user",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err),
		)
		data.Error = msgUnknownError
		h.render(w, http.StatusInternalServerError, views.PageLogin, data)
		return
	}

	http.SetCookie(w, auth.SessionCookie(session.Token, session.ExpiresAt, h.secureCookie))
	h.redirect(w, r, homePath)
}

// RegisterPage handles GET /auth/register
func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, views.PageRegister, &views.PageData{Title: "Register"})
}

// RegisterForm handles POST /auth/register
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	data := &views.PageData{Title: "Register"}
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("failed to parse register form", zap.Error(err))
		data.Error = msgUnknownError
		h.render(w, http.StatusBadRequest, views.PageRegister, data)
		return
	}

	req := &models.RegisterRequest{
		Username:  r.PostFormValue("username"),
		Email:     r.PostFormValue("email"),
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Password:  r.PostFormValue("password"),
	}
	data.Values = map[string]string{
		"username":   req.Username,
		"email":      req.Email,
		"first_name": req.FirstName,
		"last_name":  req.LastName,
	}

	if _, err := h.authService.Register(r.Context(), req); err != nil {
		status, message := h.registrationFailure(r, err)
		data.Error = message
		h.render(w, status, views.PageRegister, data)
		return
	}

	h.redirect(w, r, loginPath+"?registered=1")
}

// CreateUser handles POST /auth/user
// @Summary Register a new user
// @Description Create an active user account. The password is stored as a bcrypt hash and never returned.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration request"
// @Success 201 {object} models.User
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 409 {object} map[string]string "Username already exists"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /auth/user [post]
func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		status, message := h.registrationFailure(r, err)
		h.respondError(w, status, message)
		return
	}

	h.respondJSON(w, http.StatusCreated, user)
}

// Token handles POST /auth/token
// @Summary Obtain a session token
// @Description Check form credentials and set the access_token HttpOnly cookie.
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Success 200 {object} models.TokenResponse
// @Failure 400 {object} models.TokenResponse "Malformed form"
// @Failure 401 {object} models.TokenResponse "Authentication failed"
// @Failure 500 {object} models.TokenResponse "Internal server error"
// @Router /auth/token [post]
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.respondJSON(w, http.StatusBadRequest, models.TokenResponse{Success: false, Error: "invalid form"})
		return
	}

	session, err := h.authService.Authenticate(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		if errors.Is(err, models.ErrAuthenticationFailed) {
			h.respondJSON(w, http.StatusUnauthorized, models.TokenResponse{Success: false, Error: models.ErrAuthenticationFailed.Error()})
			return
		}
		h.logger.Error("failed to issue token",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err),
		)
		h.respondJSON(w, http.StatusInternalServerError, models.TokenResponse{Success: false, Error: msgUnknownError})
		return
	}

	http.SetCookie(w, auth.SessionCookie(session.Token, session.ExpiresAt, h.secureCookie))
	h.respondJSON(w, http.StatusOK, models.TokenResponse{Success: true})
}

// Logout handles GET /auth/logout.
// The cookie is cleared even when the token is already invalid.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, err := h.resolver.ResolveRequest(r)
	if err != nil {
		h.logger.Debug("logout with unusable session", zap.Error(err))
	}
	if identity != nil {
		if err := h.authService.Logout(r.Context(), identity); err != nil {
			h.logger.Error("failed to revoke session",
				zap.String("request_id", middleware.GetRequestID(r.Context())),
				zap.Int("user_id", identity.UserID),
				zap.Error(err),
			)
		}
	}

	http.SetCookie(w, auth.ExpiredSessionCookie(h.secureCookie))
	h.redirect(w, r, loginPath)
}

// registrationFailure maps a Register error to a status and a user facing message
func (h *AuthHandler) registrationFailure(r *http.Request, err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrValidationFailed):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrDuplicateUsername):
		return http.StatusConflict, "Username already exists"
	default:
		h.logger.Error("failed to register user",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err),
		)
		return http.StatusInternalServerError, msgUnknownError
	}
}
