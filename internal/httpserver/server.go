// HTTP server wiring for the Buchstabensalat backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs,
//     access logs).
//   - Public endpoints: "/", "/health", "/debug/words", "/share.png".
//   - Puzzle endpoints (optional auth): /game/*.
//   - Challenge endpoints (optional auth): /challenge/*, including the
//     websocket countdown stream.
//   - Account endpoints: /auth/*.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Guests are identified by an anonymous cookie; their word history is
//     persisted the same way as for accounts.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/buchstabensalat/salad/internal/auth"
	"github.com/buchstabensalat/salad/internal/challenge"
	"github.com/buchstabensalat/salad/internal/store"
	"github.com/buchstabensalat/salad/internal/words"
)

// Options configures a Server. Zero values get the defaults noted per field.
type Options struct {
	DB   *sql.DB
	Dict *words.Dictionary
	Auth auth.Config

	Clock            challenge.Clock // RealClock
	ChallengeSeconds int             // challenge.DefaultDuration
	ClientOrigin     string          // http://localhost:5173
	PublicURL        string          // encoded by /share.png; ClientOrigin when empty
	MoveRPS          int             // 10
	MoveBurst        int             // 20
	RequestTimeout   time.Duration   // 10s
	SessionIdle      time.Duration   // 2h
	Secure           bool            // production cookies
}

func (o *Options) defaults() {
	if o.Clock == nil {
		o.Clock = challenge.RealClock{}
	}
	if o.ChallengeSeconds <= 0 {
		o.ChallengeSeconds = challenge.DefaultDuration
	}
	if o.ClientOrigin == "" {
		o.ClientOrigin = "http://localhost:5173"
	}
	if o.PublicURL == "" {
		o.PublicURL = o.ClientOrigin
	}
	if o.MoveRPS <= 0 {
		o.MoveRPS = 10
	}
	if o.MoveBurst <= 0 {
		o.MoveBurst = 20
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 10 * time.Second
	}
	if o.SessionIdle <= 0 {
		o.SessionIdle = 2 * time.Hour
	}
	o.Auth.Secure = o.Secure
}

// Server bundles router, in-memory sessions and DB-backed stores.
type Server struct {
	r        *chi.Mux
	opts     Options
	sessions store.Store
	kv       *store.KV
	results  *challenge.Store
	auth     *auth.Service
	hub      *hub
	runners  *runners
	limiter  *ipLimiter
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	opts.defaults()
	s := &Server{
		r:        chi.NewRouter(),
		opts:     opts,
		sessions: store.NewMemoryStore(),
		kv:       store.NewKV(opts.DB),
		results:  challenge.NewStore(opts.DB),
		auth:     auth.New(opts.DB, opts.Auth),
		hub:      newHub(),
		runners:  newRunners(),
		limiter:  newIPLimiter(opts.MoveRPS, opts.MoveBurst),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                  // add X-Request-ID
	s.r.Use(chimw.RealIP)                     // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger))      // request-scoped logger
	s.r.Use(hlog.AccessHandler(accessLog))    // one line per request
	s.r.Use(chimw.Recoverer)                  // recover from panics
	s.r.Use(jsonContentType)                  // default JSON responses
	s.r.Use(cors(opts.ClientOrigin))          // credentials-friendly CORS
	s.r.Use(s.auth.Optional)                  // guests can play

	// The websocket stream outlives any request timeout.
	s.r.Get("/challenge/{id}/ws", s.handleChallengeStream)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(opts.RequestTimeout)) // bound handler time

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"buchstabensalat","endpoints":["/health","POST /game/new","POST /game/move","POST /game/solution","POST /challenge/start","/auth/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
			n, groups := s.opts.Dict.Stats()
			writeJSON(w, http.StatusOK, map[string]int{"words": n, "anagramGroups": groups})
		})
		r.Get("/share.png", s.handleShare)

		s.mountGame(r)
		s.mountChallenge(r)
		s.mountAuth(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Start serves HTTP on addr until ctx is cancelled, then shuts down
// gracefully and stops every running countdown.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go s.reap(ctx)

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.runners.stopAll()
	s.hub.closeAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown")
	}
	log.Info().Msg("server stopped")
	return nil
}

// limiterIdle is how long a client IP keeps its rate-limit bucket.
const limiterIdle = 10 * time.Minute

// reap drops idle sessions and rate-limit buckets every minute.
func (s *Server) reap(ctx context.Context) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.limiter.sweep(limiterIdle)
			for _, sess := range s.sessions.Sweep(s.opts.SessionIdle) {
				s.runners.forget(sess.ID)
				log.Debug().Str("gameId", sess.ID).Msg("session reaped")
			}
		}
	}
}

// ------------------------------- small util --------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
