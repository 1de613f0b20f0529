package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-efactura/auth"
	"github.com/jrsteele09/go-efactura/efactura"
	"github.com/pkg/errors"
)

// maxUploadSize bounds the invoice XML accepted by the upload proxy.
const maxUploadSize = 10 << 20

func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.currentUser(r)
		if user == "" {
			fmt.Fprintf(w, "Not logged in. Visit %s to authenticate with ANAF.\n", RouteLogin)
			return
		}
		loggedIn := s.tokens.HasValidToken(r.Context(), user)
		fmt.Fprintf(w, "Logged in as %s (token valid: %t)\n", user, loggedIn)
	}
}

// LoginHandler starts the browser authorization flow: it generates the
// anti-CSRF state, keeps it in a short-lived cookie and redirects to the
// identity provider, where the user picks their enrolled certificate.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := uuid.New().String()

		authorizeURL, err := auth.AuthorizeURL(s.authConfig, s.config.GetScope(), state)
		if err != nil {
			http.Error(w, "Failed to build authorization URL", http.StatusInternalServerError)
			return
		}

		s.SetStateCookie(w, r, state)
		http.Redirect(w, r, authorizeURL, http.StatusFound)
	}
}

// CallbackHandler completes the flow: it verifies the echoed state against
// the cookie, exchanges the code and records the resolved user identity.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if errorParam := r.FormValue("error"); errorParam != "" {
			http.Error(w, fmt.Sprintf("Authorization failed: %s - %s", errorParam, r.FormValue("error_description")), http.StatusBadRequest)
			return
		}

		code := r.FormValue("code")
		state := r.FormValue("state")
		if code == "" || state == "" {
			http.Error(w, "Missing code or state parameter", http.StatusBadRequest)
			return
		}

		stateCookie, err := r.Cookie(stateCookieName)
		if err != nil || stateCookie.Value == "" || stateCookie.Value != state {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}
		s.ClearStateCookie(w)

		tok, err := s.tokens.ExchangeCode(r.Context(), code, "")
		if err != nil {
			s.logger.Err(err).Msg("code exchange failed")
			http.Error(w, "Token exchange failed", http.StatusBadGateway)
			return
		}

		s.SetUserCookie(w, r, tok.UserID, int(time.Until(tok.ExpiresAt()).Seconds()))
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if user := s.currentUser(r); user != "" {
			if err := s.tokens.Logout(r.Context(), user); err != nil {
				s.logger.Warn().Err(err).Str("user", user).Msg("logout failed to remove token")
			}
		}
		s.ClearUserCookie(w)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// MessagesHandler proxies the message listing for the logged-in user.
// Query parameters: cif (required), days (default 30), filter (optional).
func (s *Server) MessagesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.currentUser(r)
		if user == "" {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		cif := r.URL.Query().Get("cif")
		if cif == "" {
			http.Error(w, "Missing cif parameter", http.StatusBadRequest)
			return
		}
		days := 30
		if d := r.URL.Query().Get("days"); d != "" {
			parsed, err := strconv.Atoi(d)
			if err != nil || parsed < 1 || parsed > 60 {
				http.Error(w, "days must be between 1 and 60", http.StatusBadRequest)
				return
			}
			days = parsed
		}
		filter := efactura.MessageFilter(r.URL.Query().Get("filter"))

		messages, err := s.invoiceClient(r, user).ListMessages(r.Context(), cif, days, filter)
		if err != nil {
			s.respondAPIError(w, err)
			return
		}
		s.respondJSON(w, messages)
	}
}

// UploadHandler proxies an invoice upload. The request body is the UBL
// XML; query parameters: cif (required), standard, extern, autofactura.
func (s *Server) UploadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.currentUser(r)
		if user == "" {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		cif := r.URL.Query().Get("cif")
		if cif == "" {
			http.Error(w, "Missing cif parameter", http.StatusBadRequest)
			return
		}

		invoiceXML, err := io.ReadAll(io.LimitReader(r.Body, maxUploadSize))
		if err != nil || len(invoiceXML) == 0 {
			http.Error(w, "Missing invoice body", http.StatusBadRequest)
			return
		}

		opts := efactura.UploadOptions{
			Standard:    efactura.UploadStandard(r.URL.Query().Get("standard")),
			Extern:      r.URL.Query().Get("extern") == "DA",
			SelfInvoice: r.URL.Query().Get("autofactura") == "DA",
		}

		resp, err := s.invoiceClient(r, user).Upload(r.Context(), invoiceXML, cif, opts)
		if err != nil {
			s.respondAPIError(w, err)
			return
		}
		s.respondJSON(w, resp)
	}
}

// UploadStateHandler proxies the processing-status poll. Query parameter:
// index (required).
func (s *Server) UploadStateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.currentUser(r)
		if user == "" {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		index := r.URL.Query().Get("index")
		if index == "" {
			http.Error(w, "Missing index parameter", http.StatusBadRequest)
			return
		}

		resp, err := s.invoiceClient(r, user).GetUploadState(r.Context(), index)
		if err != nil {
			s.respondAPIError(w, err)
			return
		}
		s.respondJSON(w, resp)
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Err(err).Msg("failed to encode response")
	}
}

// respondAPIError maps library errors onto demo HTTP statuses: an
// authentication failure means the user must log in again, anything else
// is an upstream problem.
func (s *Server) respondAPIError(w http.ResponseWriter, err error) {
	if errors.Is(err, auth.ErrAuthenticationRequired) {
		http.Error(w, "Authentication required, visit "+RouteLogin, http.StatusUnauthorized)
		return
	}

	var apiErr *efactura.APIError
	if errors.As(err, &apiErr) {
		s.logger.Warn().Err(err).Msg("invoice API rejected the request")
		http.Error(w, apiErr.Error(), http.StatusBadGateway)
		return
	}

	s.logger.Err(err).Msg("invoice API call failed")
	http.Error(w, "Upstream call failed", http.StatusBadGateway)
}
