package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/pavelhrube/go-account-api/internal/httputil"
	"github.com/pavelhrube/go-account-api/internal/logging"
	"github.com/pavelhrube/go-account-api/internal/session"
)

// Store is the slice of the repository the profile handlers need
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*User, error)
	UpdatePreferences(ctx context.Context, id uuid.UUID, prefs Preferences) error
}

// Handler contains HTTP handlers for the profile and preferences endpoints.
// All of them sit behind the auth gate and scope every lookup to the session
// payload's own user id, never to a client-supplied one.
type Handler struct {
	store    Store
	sessions *session.Store
}

func NewHandler(store Store, sessions *session.Store) *Handler {
	return &Handler{store: store, sessions: sessions}
}

// ProfileResponse wraps the safe user projection
type ProfileResponse struct {
	User SafeUser `json:"user"`
}

// UpdateProfileRequest is a partial update: absent fields stay untouched
type UpdateProfileRequest struct {
	Name     *string `json:"name"`
	Bio      *string `json:"bio"`
	Location *string `json:"location"`
	Website  *string `json:"website"`
}

func (r *UpdateProfileRequest) Validate() []httputil.FieldError {
	var fields []httputil.FieldError

	if r.Name != nil {
		if strings.TrimSpace(*r.Name) == "" {
			fields = append(fields, httputil.FieldError{Field: "name", Message: "name cannot be empty"})
		} else if len(*r.Name) > 255 {
			fields = append(fields, httputil.FieldError{Field: "name", Message: "name must be at most 255 characters"})
		}
	}
	if r.Bio != nil && len(*r.Bio) > 2000 {
		fields = append(fields, httputil.FieldError{Field: "bio", Message: "bio must be at most 2000 characters"})
	}
	if r.Location != nil && len(*r.Location) > 255 {
		fields = append(fields, httputil.FieldError{Field: "location", Message: "location must be at most 255 characters"})
	}
	if r.Website != nil && *r.Website != "" {
		if len(*r.Website) > 255 {
			fields = append(fields, httputil.FieldError{Field: "website", Message: "website must be at most 255 characters"})
		} else if u, err := url.Parse(*r.Website); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			fields = append(fields, httputil.FieldError{Field: "website", Message: "website must be a valid http(s) URL"})
		}
	}

	return fields
}

// UpdatePreferencesRequest is a partial preference update merged over the
// current (or default) block
type UpdatePreferencesRequest struct {
	EmailNotifications *EmailNotifications `json:"emailNotifications"`
	Theme              *string             `json:"theme"`
	Language           *string             `json:"language"`
}

func (r *UpdatePreferencesRequest) Validate() []httputil.FieldError {
	var fields []httputil.FieldError

	if r.Theme != nil && !ValidTheme(*r.Theme) {
		fields = append(fields, httputil.FieldError{Field: "theme", Message: "theme must be one of light, dark, system"})
	}
	if r.Language != nil {
		if *r.Language == "" {
			fields = append(fields, httputil.FieldError{Field: "language", Message: "language cannot be empty"})
		} else if len(*r.Language) > 10 {
			fields = append(fields, httputil.FieldError{Field: "language", Message: "language must be at most 10 characters"})
		}
	}

	return fields
}

// PreferencesResponse wraps the preference block
type PreferencesResponse struct {
	Message     string      `json:"message,omitempty"`
	Preferences Preferences `json:"preferences"`
}

// GetProfile returns the authenticated user's profile
// @Summary      Get profile
// @Description  Return the authenticated user's record without the password hash.
// @Tags         profile
// @Produce      json
// @Success      200 {object} ProfileResponse
// @Failure      401 {object} httputil.ErrorResponse "Authentication required"
// @Failure      404 {object} httputil.ErrorResponse "User record missing"
// @Router       /api/profile [get]
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	payload, _ := session.FromContext(r.Context())

	u, err := h.store.GetByID(r.Context(), payload.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Record vanished between session issuance and lookup
			logger.Warn("profile fetch failed: user not found", "user_id", payload.UserID)
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("profile fetch failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to fetch profile", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, ProfileResponse{User: u.Safe()}, http.StatusOK)
}

// UpdateProfile applies a partial profile update
// @Summary      Update profile
// @Description  Partially update profile fields; absent fields are left untouched.
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        request body UpdateProfileRequest true "Fields to update"
// @Success      200 {object} map[string]any
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Authentication required"
// @Failure      404 {object} httputil.ErrorResponse "User record missing"
// @Router       /api/profile [put]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	payload, _ := session.FromContext(r.Context())

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid profile update request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		logger.Warn("profile update failed: validation error", "violations", len(fields))
		httputil.RespondValidationError(w, fields)
		return
	}

	updated, err := h.store.UpdateProfile(r.Context(), payload.UserID, ProfileUpdate{
		Name:     req.Name,
		Bio:      req.Bio,
		Location: req.Location,
		Website:  req.Website,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Warn("profile update failed: user not found", "user_id", payload.UserID)
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("profile update failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update profile", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	// The session payload is a login-time snapshot; patch it so later
	// requests see the new display name
	if req.Name != nil {
		h.patchSessionName(r, updated, logger)
	}

	logger.Info("profile updated successfully", "user_id", updated.ID)

	httputil.RespondJSON(w, map[string]any{
		"message": "profile updated successfully",
		"user":    updated.Safe(),
	}, http.StatusOK)
}

// GetPreferences returns the stored preference block or the defaults
// @Summary      Get preferences
// @Tags         preferences
// @Produce      json
// @Success      200 {object} PreferencesResponse
// @Failure      401 {object} httputil.ErrorResponse "Authentication required"
// @Failure      404 {object} httputil.ErrorResponse "User record missing"
// @Router       /api/preferences [get]
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	payload, _ := session.FromContext(r.Context())

	u, err := h.store.GetByID(r.Context(), payload.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Warn("preferences fetch failed: user not found", "user_id", payload.UserID)
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("preferences fetch failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to fetch preferences", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, PreferencesResponse{Preferences: u.EffectivePreferences()}, http.StatusOK)
}

// UpdatePreferences merges the request over the current block and stores it
// @Summary      Update preferences
// @Tags         preferences
// @Accept       json
// @Produce      json
// @Param        request body UpdatePreferencesRequest true "Preference fields"
// @Success      200 {object} PreferencesResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Authentication required"
// @Failure      500 {object} httputil.ErrorResponse "Store failure"
// @Router       /api/preferences/update [put]
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	payload, _ := session.FromContext(r.Context())

	var req UpdatePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid preferences update request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		logger.Warn("preferences update failed: validation error", "violations", len(fields))
		httputil.RespondValidationError(w, fields)
		return
	}

	u, err := h.store.GetByID(r.Context(), payload.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Warn("preferences update failed: user not found", "user_id", payload.UserID)
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("preferences update failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update preferences", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	prefs := u.EffectivePreferences()
	if req.EmailNotifications != nil {
		prefs.EmailNotifications = *req.EmailNotifications
	}
	if req.Theme != nil {
		prefs.Theme = *req.Theme
	}
	if req.Language != nil {
		prefs.Language = *req.Language
	}

	if err := h.store.UpdatePreferences(r.Context(), payload.UserID, prefs); err != nil {
		logger.Error("preferences update failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update preferences", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("preferences updated successfully", "user_id", payload.UserID)

	httputil.RespondJSON(w, PreferencesResponse{
		Message:     "preferences updated successfully",
		Preferences: prefs,
	}, http.StatusOK)
}

// patchSessionName writes the updated display name back into the live
// session payload so the change outlives this request
func (h *Handler) patchSessionName(r *http.Request, updated *User, logger *logging.Logger) {
	sid, ok := session.IDFromContext(r.Context())
	if !ok {
		return
	}
	payload, _ := session.FromContext(r.Context())

	patched := *payload
	patched.Name = updated.DisplayName()
	if err := h.sessions.Update(r.Context(), sid, &patched); err != nil && !errors.Is(err, session.ErrNotFound) {
		// The response already reflects the DB; a stale session name is
		// recoverable on next login
		logger.Warn("failed to patch session payload", "error", err.Error())
	}
}
