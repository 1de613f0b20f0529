package server

import (
	"net/http"
)

const (
	// stateCookieName tracks the anti-CSRF state value between the login
	// redirect and the provider callback.
	stateCookieName = "efactura_auth_state"
	// userCookieName identifies the logged-in user for subsequent API calls.
	userCookieName = "efactura_user"
)

func (s *Server) SetStateCookie(w http.ResponseWriter, r *http.Request, state string) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300, // long enough for the certificate prompt and redirect
	})
}

func (s *Server) ClearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func (s *Server) SetUserCookie(w http.ResponseWriter, r *http.Request, userKey string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     userCookieName,
		Value:    userKey,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func (s *Server) ClearUserCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     userCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// currentUser returns the identity key of the logged-in user, or "" when
// no user cookie is present.
func (s *Server) currentUser(r *http.Request) string {
	cookie, err := r.Cookie(userCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
