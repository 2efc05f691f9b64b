package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"

	"fintrack/internal/core"
	"fintrack/internal/service"
)

type AuthHandler struct {
	authSvc  *service.AuthService
	store    *sessions.CookieStore
	validate *validator.Validate
}

func NewAuthHandler(authSvc *service.AuthService, store *sessions.CookieStore) *AuthHandler {
	return &AuthHandler{
		authSvc:  authSvc,
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.authSvc.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	session, _ := h.store.Get(r, sessionName)
	session.Values["user_id"] = user.ID
	session.Values["username"] = user.Username
	if err := session.Save(r, w); err != nil {
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.store.Get(r, sessionName)
	session.Options.MaxAge = -1
	_ = session.Save(r, w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Me returns the logged-in user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authSvc.GetUser(r.Context(), userID(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type profileUpdate struct {
	Username  *string `json:"username" validate:"omitempty,min=3,max=64"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Password  *string `json:"password" validate:"omitempty,min=8"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

// UpdateProfile patches the logged-in user. An omitted or empty password
// keeps the current one.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileUpdate
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Password != nil && *req.Password == "" {
		req.Password = nil
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.authSvc.UpdateProfile(r.Context(), userID(r), core.UserPatch{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
