package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/JoeWakeling/newswire/internal/auth"
	"github.com/JoeWakeling/newswire/internal/store"
)

const sessionCookie = "sessionid"

// Server is one news agency's HTTP API: story queries, authenticated story
// mutations, and login/logout.
type Server struct {
	store    store.Store
	sessions *auth.Sessions
	logger   *zap.Logger
	router   *mux.Router
	server   *http.Server
}

func NewServer(st store.Store, sessions *auth.Sessions, logger *zap.Logger) *Server {
	s := &Server{
		store:    st,
		sessions: sessions,
		logger:   logger,
		router:   mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/api/stories", s.handleQueryStories).Methods("GET")
	s.router.HandleFunc("/api/stories", s.handleCreateStory).Methods("POST")
	s.router.HandleFunc("/api/stories/{key}", s.handleDeleteStory).Methods("DELETE")
	s.router.HandleFunc("/api/login", s.handleLogin).Methods("POST")
	s.router.HandleFunc("/api/logout", s.handleLogout).Methods("POST")
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start launches the HTTP server
func (s *Server) Start(port string) error {
	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.logger.Info("Agency server listening", zap.String("addr", port))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// authenticate resolves the request's session cookie to a user.
func (s *Server) authenticate(r *http.Request) (*store.User, error) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, auth.ErrNoSession
	}
	return s.sessions.User(r.Context(), c.Value)
}

func textError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	w.Write([]byte(msg))
}
