// Accounts, JWTs and cookies.
//
// Responsibilities:
//   - users table CRUD (bcrypt password hashes).
//   - HS256 tokens carrying id/username.
//   - Cookie helpers and token extraction (Bearer header or cookie).
//
// Guests never reach this package; the HTTP layer gives them an anonymous
// cookie instead.

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// User matches the users table shape.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity is what a valid token proves.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Config holds the token and cookie settings.
type Config struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool // production: Secure + SameSite=None
}

// Service bundles the users table and token settings.
type Service struct {
	db   *sql.DB
	cfg  Config
	cost int
}

func New(db *sql.DB, cfg Config) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = 14 * 24 * time.Hour
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "salad_token"
	}
	if cfg.Secret == "" {
		cfg.Secret = "dev_secret_change_me"
	}
	return &Service{db: db, cfg: cfg, cost: bcrypt.DefaultCost}
}

// normalizeUsername trims whitespace.
func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// validateSignup enforces basic username/password rules.
func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3-24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return errors.New("password must be 8-100 chars")
	}
	return nil
}

// Signup validates input, checks uniqueness, hashes the password and inserts
// a new user.
func (s *Service) Signup(ctx context.Context, username, pw string) (*User, error) {
	username = normalizeUsername(username)
	if err := validateSignup(username, pw); err != nil {
		return nil, err
	}
	var exists int
	_ = s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE lower(username)=lower(?)`, username).Scan(&exists)
	if exists == 1 {
		return nil, ErrUsernameTaken
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(h),
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt.Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// Login checks the password of username.
func (s *Service) Login(ctx context.Context, username, pw string) (*User, error) {
	u, err := s.findUser(ctx, `lower(username)=lower(?)`, normalizeUsername(username))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pw)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) FindByID(ctx context.Context, id string) (*User, error) {
	return s.findUser(ctx, `id=?`, id)
}

func (s *Service) findUser(ctx context.Context, where string, arg string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE `+where, arg)
	var u User
	var created string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created); err != nil {
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &u, nil
}

// ------------------------------ JWT & cookies ------------------------------

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Sign creates an HS256 token for u.
func (s *Service) Sign(u *User) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.cfg.TTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        u.ID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	ss, err := t.SignedString([]byte(s.cfg.Secret))
	return ss, exp, err
}

// Parse validates a token and returns its identity.
func (s *Service) Parse(tok string) (*Identity, error) {
	var c claims
	t, err := jwt.ParseWithClaims(tok, &c, func(t *jwt.Token) (any, error) {
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}
	if c.ID == "" || c.Username == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{ID: c.ID, Username: c.Username}, nil
}

func (s *Service) sameSite() http.SameSite {
	if s.cfg.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// SetCookie writes the auth token cookie.
func (s *Service) SetCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: s.sameSite(),
		Expires:  exp,
	})
}

// ClearCookie deletes the auth token cookie.
func (s *Service) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: s.sameSite(),
		MaxAge:   -1,
	})
}

// tokenFrom extracts a bearer token from the Authorization header or the auth
// cookie.
func (s *Service) tokenFrom(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}
