package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/Leganyst/slotswap-platform/internal/apperr"
	"github.com/Leganyst/slotswap-platform/internal/model"
)

type authResponse struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

// Signup — POST /api/auth/signup
func (a *API) Signup(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperr.InvalidArg("invalid JSON body"))
		return
	}

	u, err := a.identity.Signup(r.Context(), input.Name, input.Email, input.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := IssueToken(u, a.cfg.JWTSecret, a.cfg.TokenTTL)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.CodeInternal, "issue token", err))
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: u.Public()})
}

// Login — POST /api/auth/login
func (a *API) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperr.InvalidArg("invalid JSON body"))
		return
	}
	if input.Email == "" || input.Password == "" {
		writeError(w, apperr.InvalidArg("email and password are required"))
		return
	}

	u, err := a.identity.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := IssueToken(u, a.cfg.JWTSecret, a.cfg.TokenTTL)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.CodeInternal, "issue token", err))
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: token, User: u.Public()})
}
