package web

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/JoeWakeling/newswire/internal/auth"
)

// handleLogin implements POST /api/login with form-encoded credentials.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		textError(w, "invalid form body", http.StatusServiceUnavailable)
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	token, user, err := s.sessions.Login(r.Context(), username, password)
	if errors.Is(err, auth.ErrBadCredentials) {
		textError(w, "Authentication failed, username or password incorrect.", http.StatusUnauthorized)
		return
	}
	if err != nil {
		s.logger.Error("Login failed", zap.String("username", username), zap.Error(err))
		textError(w, "unable to process request", http.StatusServiceUnavailable)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.SessionTTL.Seconds()),
		HttpOnly: true,
	})
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Welcome %s", user.DisplayName)
}

// handleLogout implements POST /api/logout. Without an active session the
// request is not allowed.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		textError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.sessions.Logout(r.Context(), c.Value); err != nil {
		if errors.Is(err, auth.ErrNoSession) {
			textError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.logger.Error("Logout failed", zap.Error(err))
		textError(w, "unable to process request", http.StatusServiceUnavailable)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "Goodbye.")
}
