package httpserver

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/time/rate"

	"github.com/buchstabensalat/salad/internal/auth"
	"github.com/buchstabensalat/salad/internal/game"
)

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func accessLog(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("dur", d).
		Msg("request")
}

// ipLimiter hands out one token bucket per client IP. Buckets unused for a
// while are dropped by sweep.
type ipLimiter struct {
	mu    sync.Mutex
	m     map[string]*ipBucket
	rps   int
	burst int
	now   func() time.Time
}

type ipBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(rps, burst int) *ipLimiter {
	return &ipLimiter{m: make(map[string]*ipBucket), rps: rps, burst: burst, now: time.Now}
}

func (l *ipLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.m[key]
	if !ok {
		b = &ipBucket{lim: rate.NewLimiter(rate.Every(time.Second/time.Duration(l.rps)), l.burst)}
		l.m[key] = b
	}
	b.lastSeen = l.now()
	return b.lim
}

// sweep drops buckets not used within maxIdle and reports how many went.
func (l *ipLimiter) sweep(maxIdle time.Duration) int {
	cutoff := l.now().Add(-maxIdle)
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for key, b := range l.m {
		if b.lastSeen.Before(cutoff) {
			delete(l.m, key)
			n++
		}
	}
	return n
}

func (l *ipLimiter) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

// middleware rejects clients that exceed their bucket with 429.
func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			key = r.RemoteAddr // RealIP strips the port
		}
		if !l.get(key).Allow() {
			writeError(w, http.StatusTooManyRequests, "Too many requests. Please slow down.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

const anonCookieName = "salad_anon"

// ownerID returns the account ID when logged in, otherwise the anonymous
// cookie value (set on first use).
func (s *Server) ownerID(w http.ResponseWriter, r *http.Request) string {
	if me := auth.FromContext(r.Context()); me != nil {
		return me.ID
	}
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	sameSite := http.SameSiteLaxMode
	if s.opts.Secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: sameSite,
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}

// owns reports whether the requester is the owner of sess, either by account
// or by anonymous cookie.
func owns(r *http.Request, sess *game.Session) bool {
	if me := auth.FromContext(r.Context()); me != nil && me.ID == sess.OwnerID {
		return true
	}
	c, err := r.Cookie(anonCookieName)
	return err == nil && c.Value != "" && c.Value == sess.OwnerID
}
