package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/Zahidur-Rahman/Task-Pulse/internal/model"
)

// CookieName is the HttpOnly cookie that carries the access token.
// The same token is also accepted via "Authorization: Bearer <token>" —
// both transports carry the identical server-validated JWT.
const CookieName = "access_token"

// Identity is the server-trusted caller identity attached to the request
// context by RequireAuth. It is re-resolved from the user store on every
// request: the role in a client-cached copy of the login response is UI
// sugar and never reaches an authorization decision.
type Identity struct {
	UserID  int64
	Email   string
	Role    model.Role
	TokenID string
}

// IsAdmin reports whether the caller holds the admin role.
func (id Identity) IsAdmin() bool {
	return id.Role == model.RoleAdmin
}

// UserSource loads user records during identity resolution.
// repository.UserRepository satisfies it.
type UserSource interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// RevocationSource answers whether a token ID has been revoked by logout.
// repository.TokenRepository satisfies it.
type RevocationSource interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the identity value.
type contextKey string

const identityKey contextKey = "identity"

// RequireAuth enforces authentication on protected routes.
//
// RESOLUTION ORDER:
//  1. Extract the token — cookie first, then the Authorization header.
//  2. Validate signature, expiry, and issuer.
//  3. Reject tokens revoked by a previous logout (jti check).
//  4. Re-read the user row; inactive or deleted accounts are rejected even
//     while their token is formally valid.
//
// On success the resolved Identity is stored in the request context; on any
// failure the chain stops with 401 and a uniform body that does not reveal
// which step failed.
func RequireAuth(tokens *TokenService, users UserSource, revoked RevocationSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, err := resolveIdentity(r, tokens, users, revoked)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "unauthenticated", "valid authentication required")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin stops non-admin callers with 403. It must be mounted inside
// a RequireAuth chain — without an identity in context it rejects everyone.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := IdentityFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "unauthenticated", "valid authentication required")
				return
			}
			if !ident.IsAdmin() {
				writeAuthError(w, http.StatusForbidden, "forbidden", "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext retrieves the authenticated caller from the request
// context. Returns (zero, false) when the request is unauthenticated.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	ident, ok := ctx.Value(identityKey).(Identity)
	return ident, ok && ident.UserID > 0
}

// ExtractToken returns the raw token string from the request, or "" when
// no credential is attached. Shared by the middleware and the logout
// handler (which needs the jti of the token being revoked).
func ExtractToken(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func resolveIdentity(r *http.Request, tokens *TokenService, users UserSource, revoked RevocationSource) (Identity, error) {
	tokenStr := ExtractToken(r)
	if tokenStr == "" {
		return Identity{}, http.ErrNoCookie
	}

	claims, err := tokens.Validate(tokenStr)
	if err != nil {
		return Identity{}, err
	}

	if isRevoked, err := revoked.IsRevoked(r.Context(), claims.TokenID); err != nil || isRevoked {
		if err == nil {
			err = errTokenRevoked
		}
		return Identity{}, err
	}

	user, err := users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		return Identity{}, err
	}
	if !user.IsActive {
		return Identity{}, errAccountInactive
	}

	return Identity{
		UserID:  user.ID,
		Email:   user.Email,
		Role:    user.Role,
		TokenID: claims.TokenID,
	}, nil
}

var (
	errTokenRevoked    = &authError{"auth: token revoked"}
	errAccountInactive = &authError{"auth: account inactive"}
)

type authError struct{ msg string }

func (e *authError) Error() string { return e.msg }

// writeAuthError emits the middleware's JSON error body. The shape matches
// handler.ErrorResponse so clients see one error format everywhere.
func writeAuthError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + errType + `","message":"` + message + `"}`))
}
