package handler

import (
	"log/slog"
	"net/http"

	"github.com/Zahidur-Rahman/Task-Pulse/internal/auth"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/model"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/service"
)

// AuthHandler serves the credential endpoints: token login and logout.
//
// Login accepts the classic password-grant form shape (username/password
// fields) so generic OAuth2 clients and plain HTML forms both work, and
// delivers the token twice: in the JSON body for API clients and in an
// HttpOnly cookie for browsers.
type AuthHandler struct {
	auth         *service.AuthService
	cookieSecure bool
	logger       *slog.Logger
}

func NewAuthHandler(authSvc *service.AuthService, cookieSecure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authSvc, cookieSecure: cookieSecure, logger: logger}
}

// tokenResponse is the login response body. The embedded user summary
// saves clients a follow-up /user/me call; the role in it is display
// sugar only — authorization always re-reads the server-side record.
type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"` // seconds
	User        tokenUser `json:"user"`
}

type tokenUser struct {
	ID    int64      `json:"id"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// HandleLoginToken exchanges credentials for an access token.
//
// HTTP: POST /login/token (form-encoded: username, password)
func (h *AuthHandler) HandleLoginToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "malformed form body",
		})
		return
	}

	result, err := h.auth.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(result.ExpiresIn.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.cookieSecure,
	})

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: result.Token,
		TokenType:   "bearer",
		ExpiresIn:   int(result.ExpiresIn.Seconds()),
		User: tokenUser{
			ID:    result.User.ID,
			Email: result.User.Email,
			Role:  result.User.Role,
		},
	})
}

// HandleLogout revokes the presented token and clears the cookie.
//
// HTTP: POST /login/logout
//
// Revocation is server-side: the token's jti lands in the revocation
// store, so even a copy the client kept stops working immediately.
// Calling logout without a usable token still succeeds — the end state
// is the same.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), auth.ExtractToken(r)); err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.cookieSecure,
	})

	writeJSON(w, http.StatusOK, map[string]string{"detail": "Logged out successfully"})
}
