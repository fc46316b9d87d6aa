package http

import (
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/model/auth"
	"github.com/secmon-lab/hazop/pkg/usecase"
)

// UserIDHeader carries the caller's employee id in no-auth mode
const UserIDHeader = "X-User-ID"

// authMiddleware resolves the caller and stores the token in the request
// context. A missing or invalid bearer token is rejected with 401.
func authMiddleware(authUC usecase.AuthUseCaseInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Without an auth use case every request is anonymous
			if authUC == nil {
				ctx := auth.ContextWithToken(r.Context(), auth.NewAnonymousUser())
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			var credential string
			if authUC.IsNoAuthn() {
				credential = r.Header.Get(UserIDHeader)
			} else {
				var ok bool
				credential, ok = bearerToken(r)
				if !ok {
					writeError(w, r, goerr.Wrap(usecase.ErrUnauthenticated, "authentication required"))
					return
				}
			}

			token, err := authUC.ValidateToken(r.Context(), credential)
			if err != nil {
				writeError(w, r, err)
				return
			}

			ctx := auth.ContextWithToken(r.Context(), token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
