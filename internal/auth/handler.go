package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/pavelhrube/go-account-api/internal/httputil"
	"github.com/pavelhrube/go-account-api/internal/logging"
	"github.com/pavelhrube/go-account-api/internal/session"
	"github.com/pavelhrube/go-account-api/internal/user"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service      *Service
	sessions     *session.Store
	cookieName   string
	sessionTTL   time.Duration
	isProduction bool
}

func NewHandler(service *Service, sessions *session.Store, cookieName string, sessionTTL time.Duration, isProduction bool) *Handler {
	return &Handler{
		service:      service,
		sessions:     sessions,
		cookieName:   cookieName,
		sessionTTL:   sessionTTL,
		isProduction: isProduction,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate collects every field violation instead of stopping at the first
func (r *RegisterRequest) Validate() []httputil.FieldError {
	var fields []httputil.FieldError

	if r.Email == "" {
		fields = append(fields, httputil.FieldError{Field: "email", Message: "email is required"})
	} else if len(r.Email) > 254 {
		fields = append(fields, httputil.FieldError{Field: "email", Message: "invalid email address"})
	} else if _, err := mail.ParseAddress(r.Email); err != nil {
		fields = append(fields, httputil.FieldError{Field: "email", Message: "invalid email address"})
	}

	if r.Name == "" {
		fields = append(fields, httputil.FieldError{Field: "name", Message: "name is required"})
	}

	if r.Password == "" {
		fields = append(fields, httputil.FieldError{Field: "password", Message: "password is required"})
	} else if len(r.Password) < 8 {
		fields = append(fields, httputil.FieldError{Field: "password", Message: "password must be at least 8 characters"})
	}

	if r.Password != r.ConfirmPassword {
		fields = append(fields, httputil.FieldError{Field: "confirmPassword", Message: "passwords do not match"})
	}

	return fields
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() []httputil.FieldError {
	var fields []httputil.FieldError

	if r.Email == "" {
		fields = append(fields, httputil.FieldError{Field: "email", Message: "email is required"})
	} else if _, err := mail.ParseAddress(r.Email); err != nil {
		fields = append(fields, httputil.FieldError{Field: "email", Message: "invalid email address"})
	}

	if r.Password == "" {
		fields = append(fields, httputil.FieldError{Field: "password", Message: "password is required"})
	}

	return fields
}

// UserResponse holds the safe user projection plus a message
type UserResponse struct {
	Message string        `json:"message"`
	User    user.SafeUser `json:"user"`
}

// MeUser is the identity snapshot reported by the me endpoint
type MeUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name,omitempty"`
}

// MeResponse reports the current authentication state
type MeResponse struct {
	IsAuthenticated bool    `json:"isAuthenticated"`
	User            *MeUser `json:"user,omitempty"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a new account and log it in (a session cookie is set).
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration fields"
// @Success      201 {object} UserResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error or duplicate email"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /api/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		logger.Warn("registration failed: validation error", "violations", len(fields))
		httputil.RespondValidationError(w, fields)
		return
	}

	newUser, err := h.service.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			logger.Warn("registration failed: email already exists")
			httputil.RespondErrorWithCode(w, "user with this email already exists", httputil.CodeEmailAlreadyExists, http.StatusBadRequest)
			return
		}
		logger.Error("registration failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to register user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)

	// Auto-login: best-effort sequential step after the credential write.
	// If session creation fails the account still exists and the client can
	// log in, so respond 201 either way.
	if err := h.establishSession(w, r, newUser); err != nil {
		logger.Error("failed to create session after registration", "error", err.Error())
	}

	httputil.RespondJSON(w, UserResponse{
		Message: "user registered successfully",
		User:    newUser.Safe(),
	}, http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate with email and password; sets the session cookie.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} UserResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error or invalid credentials"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /api/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		logger.Warn("login failed: validation error", "violations", len(fields))
		httputil.RespondValidationError(w, fields)
		return
	}

	existingUser, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			httputil.RespondErrorWithCode(w, "invalid email or password", httputil.CodeInvalidCredentials, http.StatusBadRequest)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	if err := h.establishSession(w, r, existingUser); err != nil {
		logger.Error("failed to create session", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in successfully", "user_id", existingUser.ID)

	httputil.RespondJSON(w, UserResponse{
		Message: "login successful",
		User:    existingUser.Safe(),
	}, http.StatusOK)
}

// Logout handles user logout
// @Summary      User logout
// @Description  Destroy the current session and clear the cookie. Idempotent.
// @Tags         auth
// @Produce      json
// @Success      200 {object} map[string]string
// @Failure      500 {object} httputil.ErrorResponse "Session store failure"
// @Router       /api/auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// A request without a live session still logs out successfully
	if sid, ok := session.IDFromContext(r.Context()); ok {
		if err := h.sessions.Destroy(r.Context(), sid); err != nil {
			logger.Error("failed to destroy session", "error", err.Error())
			httputil.RespondErrorWithCode(w, "error logging out", httputil.CodeInternalError, http.StatusInternalServerError)
			return
		}
	}

	session.ClearSessionCookie(w, h.cookieName, h.isProduction)

	logger.Info("user logged out successfully")

	httputil.RespondJSON(w, map[string]string{"message": "logged out successfully"}, http.StatusOK)
}

// Me reports the current authentication state
// @Summary      Current identity
// @Description  Report whether the request carries an authenticated session. Never errors.
// @Tags         auth
// @Produce      json
// @Success      200 {object} MeResponse
// @Router       /api/auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	payload, ok := session.FromContext(r.Context())
	if !ok {
		httputil.RespondJSON(w, MeResponse{IsAuthenticated: false}, http.StatusOK)
		return
	}

	httputil.RespondJSON(w, MeResponse{
		IsAuthenticated: true,
		User: &MeUser{
			ID:    payload.UserID,
			Email: payload.Email,
			Name:  payload.Name,
		},
	}, http.StatusOK)
}

// establishSession creates a session for the user and sets the cookie.
// The payload is a snapshot of the identity fields at login time.
func (h *Handler) establishSession(w http.ResponseWriter, r *http.Request, u *user.User) error {
	sid, err := h.sessions.Create(r.Context(), &session.Payload{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.DisplayName(),
	})
	if err != nil {
		return err
	}

	session.SetSessionCookie(w, h.cookieName, sid, h.sessionTTL, h.isProduction)
	return nil
}
