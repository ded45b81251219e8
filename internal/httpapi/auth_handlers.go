package httpapi

import (
	"net/http"

	"usergate.org/internal/audit"
	"usergate.org/internal/auth"
	"usergate.org/internal/idp"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
	Session     string `json:"session"`
}

type challengeResponse struct {
	Challenge string `json:"challenge"`
	Session   string `json:"session"`
	Message   string `json:"message"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleKindError(w, r, err)
		return
	}

	if res.Challenge != nil {
		writeJSON(w, http.StatusPreconditionRequired, challengeResponse{
			Challenge: res.Challenge.Kind,
			Session:   res.Challenge.Session,
			Message:   "a new password is required before tokens can be issued",
		})
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{"email": req.Email})
	writeTokens(w, res.Tokens)
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := a.auth.RespondToNewPasswordChallenge(r.Context(), req.Email, req.NewPassword, req.Session)
	if err != nil {
		handleKindError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.password.changed", map[string]any{"email": req.Email})
	writeTokens(w, tokens)
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := a.auth.Logout(r.Context(), principal.Subject); err != nil {
		handleKindError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.logout", map[string]any{"subject": principal.Subject})
	w.WriteHeader(http.StatusNoContent)
}

func writeTokens(w http.ResponseWriter, t *idp.Tokens) {
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  t.AccessToken,
		"id_token":      t.IDToken,
		"refresh_token": t.RefreshToken,
		"expires_in":    t.ExpiresIn,
		"token_type":    t.TokenType,
	})
}
