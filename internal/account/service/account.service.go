package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"

	"notesync/internal/account/model"
	"notesync/internal/account/repository"
	"notesync/pkg/logger"
)

// AuthError carries a message safe to surface verbatim to the user, as
// opposed to internal failures which are logged and reported generically.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

type AuthEvent string

const (
	EventSignedIn  AuthEvent = "SIGNED_IN"
	EventSignedOut AuthEvent = "SIGNED_OUT"
	EventRestored  AuthEvent = "SESSION_RESTORED"
)

// SessionToken is an issued login session.
type SessionToken struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

const (
	pbkdf2Iterations = 120_000
	saltSize         = 16
	verifierSize     = 32
	tokenTTL         = 24 * time.Hour
)

type AccountService struct {
	Repo           *repository.AccountRepository
	secret         []byte
	requireConfirm bool

	mu        sync.Mutex
	listeners []func(AuthEvent, *SessionToken)
}

func NewAccountService(repo *repository.AccountRepository, secret []byte, requireConfirm bool) *AccountService {
	return &AccountService{Repo: repo, secret: secret, requireConfirm: requireConfirm}
}

// SignUp registers a new account. When email confirmation is required the
// returned session is nil and the user must confirm before logging in.
func (s *AccountService) SignUp(email, password string) (model.User, *SessionToken, error) {
	email = normalizeEmail(email)
	if !strings.Contains(email, "@") {
		return model.User{}, nil, &AuthError{Message: "Please enter a valid email address."}
	}
	if len(password) < 8 {
		return model.User{}, nil, &AuthError{Message: "Password must be at least 8 characters."}
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return model.User{}, nil, err
	}
	u := model.User{
		ID:        uuid.NewString(),
		Email:     email,
		Salt:      salt,
		Verifier:  deriveVerifier(password, salt),
		Confirmed: !s.requireConfirm,
	}

	if err := s.Repo.CreateUser(u); err != nil {
		if repository.IsUniqueViolation(err) {
			return model.User{}, nil, &AuthError{Message: "An account with that email already exists."}
		}
		return model.User{}, nil, err
	}

	if !u.Confirmed {
		return u, nil, nil
	}

	tok, err := s.issue(u)
	if err != nil {
		return u, nil, err
	}
	s.notify(EventSignedIn, tok)
	return u, tok, nil
}

func (s *AccountService) LogIn(email, password string) (model.User, *SessionToken, error) {
	u, ok, err := s.Repo.GetByEmail(normalizeEmail(email))
	if err != nil {
		return model.User{}, nil, err
	}
	if !ok || subtle.ConstantTimeCompare(deriveVerifier(password, u.Salt), u.Verifier) != 1 {
		return model.User{}, nil, &AuthError{Message: "Invalid email or password."}
	}
	if !u.Confirmed {
		return model.User{}, nil, &AuthError{Message: "Please confirm your email address before logging in."}
	}

	tok, err := s.issue(u)
	if err != nil {
		return model.User{}, nil, err
	}
	s.notify(EventSignedIn, tok)
	return u, tok, nil
}

// LogOut ends the session. Tokens are stateless, so logout is the client
// discarding its token; listeners are told so views can switch.
func (s *AccountService) LogOut() {
	s.notify(EventSignedOut, nil)
}

// CurrentSession validates a previously issued token and returns the live
// session, or nil when the token is absent, invalid, or expired.
func (s *AccountService) CurrentSession(token string) *SessionToken {
	tok := s.parse(token)
	if tok != nil {
		s.notify(EventRestored, tok)
	}
	return tok
}

// Confirm marks the account's email address as verified.
func (s *AccountService) Confirm(email string) error {
	return s.Repo.Confirm(normalizeEmail(email))
}

// OnAuthChange registers a callback invoked asynchronously whenever a
// sign-in, sign-out, or session restore occurs.
func (s *AccountService) OnAuthChange(fn func(AuthEvent, *SessionToken)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *AccountService) notify(event AuthEvent, tok *SessionToken) {
	s.mu.Lock()
	listeners := make([]func(AuthEvent, *SessionToken), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	go func() {
		for _, fn := range listeners {
			fn(event, tok)
		}
	}()
}

func (s *AccountService) issue(u model.User) (*SessionToken, error) {
	expiresAt := time.Now().Add(tokenTTL)
	claims := jwt.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"iat":   time.Now().Unix(),
		"exp":   expiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		logger.Sugar.Errorf("Failed to sign session token for %s: %v", u.Email, err)
		return nil, err
	}
	return &SessionToken{Token: signed, UserID: u.ID, Email: u.Email, ExpiresAt: expiresAt}, nil
}

func (s *AccountService) parse(tokenString string) *SessionToken {
	if tokenString == "" {
		return nil
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	exp, _ := claims["exp"].(float64)
	if sub == "" {
		return nil
	}
	return &SessionToken{Token: tokenString, UserID: sub, Email: email, ExpiresAt: time.Unix(int64(exp), 0)}
}

func deriveVerifier(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, verifierSize, sha256.New)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
