// Package session is the identity side of the daemon: who is signed in,
// sign-in/sign-out, and notifications when that changes.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/tabmark/internal/domain"
	"github.com/MrSnakeDoc/tabmark/internal/logger"
)

// userNamespace scopes the name-based user IDs derived from e-mail addresses.
var userNamespace = uuid.MustParse("6f1b6c52-3a0e-4d39-9f4c-6a0d2f8b7e11")

// Claims is the signed content of a session token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Email  string `json:"email,omitempty"`
}

// persisted is the on-disk session file.
type persisted struct {
	Token    string    `yaml:"token"`
	SignedIn time.Time `yaml:"signed_in"`
}

// Manager holds the single active session of this process.
type Manager struct {
	secret []byte
	ttl    time.Duration
	file   string
	logger logger.Logger
	now    func() time.Time

	// notifyMu keeps watcher notifications in the order of the state changes.
	notifyMu sync.Mutex

	mu       sync.Mutex
	user     *domain.User
	token    string
	watchers map[int]func(*domain.User)
	nextID   int
}

// NewManager creates a manager with no active session. Call Restore to
// pick up a persisted one.
func NewManager(secret []byte, ttl time.Duration, file string, log logger.Logger) *Manager {
	return &Manager{
		secret:   secret,
		ttl:      ttl,
		file:     file,
		logger:   log,
		now:      time.Now,
		watchers: make(map[int]func(*domain.User)),
	}
}

// UserIDForEmail derives the stable user ID of an e-mail address.
func UserIDForEmail(email string) string {
	return uuid.NewSHA1(userNamespace, []byte(strings.ToLower(strings.TrimSpace(email)))).String()
}

// Current returns a copy of the signed-in user, or nil.
func (m *Manager) Current() *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Token returns the signed token of the active session, or "".
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Watch registers fn to be called after every sign-in/sign-out, with the
// new user (nil on sign-out). Watchers run synchronously, in registration
// order, after the state change is visible through Current.
func (m *Manager) Watch(fn func(*domain.User)) (cancel func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.watchers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.watchers, id)
		m.mu.Unlock()
	}
}

// SignIn starts a session for email, persists it and notifies watchers.
func (m *Manager) SignIn(_ context.Context, email string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email %q", email)
	}

	user := &domain.User{ID: UserIDForEmail(email), Email: email}
	token, err := m.issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	if err := m.save(persisted{Token: token, SignedIn: m.now().UTC()}); err != nil {
		m.logger.Warn("session will not survive a restart", logger.Error(err))
	}

	m.logger.Info("signed in", logger.UserID(user.ID))
	m.set(user, token)
	return m.Current(), nil
}

// SignOut ends the session, removes the persisted file and notifies watchers.
func (m *Manager) SignOut(_ context.Context) error {
	if err := os.Remove(m.file); err != nil && !errors.Is(err, os.ErrNotExist) {
		m.logger.Warn("failed to remove session file", logger.String("file", m.file), logger.Error(err))
	}

	if prev := m.Current(); prev != nil {
		m.logger.Info("signed out", logger.UserID(prev.ID))
	}
	m.set(nil, "")
	return nil
}

// Restore loads the persisted session, if any. A missing, expired or
// tampered token leaves the manager signed out and is not an error.
func (m *Manager) Restore(_ context.Context) (*domain.User, error) {
	data, err := os.ReadFile(m.file)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var p persisted
	if err := yaml.Unmarshal(data, &p); err != nil {
		m.logger.Warn("ignoring unreadable session file", logger.Error(err))
		return nil, nil
	}

	user, err := m.Verify(p.Token)
	if err != nil {
		m.logger.Info("persisted session is no longer valid", logger.Error(err))
		return nil, nil
	}

	m.logger.Info("session restored", logger.UserID(user.ID))
	m.set(user, p.Token)
	return m.Current(), nil
}

// Verify checks a token's signature and expiry and returns its user.
func (m *Manager) Verify(token string) (*domain.User, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return nil, domain.ErrInvalidToken
	}
	return &domain.User{ID: claims.UserID, Email: claims.Email}, nil
}

func (m *Manager) issue(user *domain.User) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		UserID: user.ID,
		Email:  user.Email,
	})
	return token.SignedString(m.secret)
}

func (m *Manager) save(p persisted) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.file), 0o700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}
	if err := os.WriteFile(m.file, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

func (m *Manager) set(user *domain.User, token string) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	m.user = user
	m.token = token
	ids := make([]int, 0, len(m.watchers))
	for id := range m.watchers {
		ids = append(ids, id)
	}
	watchers := make([]func(*domain.User), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		watchers = append(watchers, m.watchers[id])
	}
	m.mu.Unlock()

	for _, fn := range watchers {
		if user == nil {
			fn(nil)
			continue
		}
		u := *user
		fn(&u)
	}
}
