package application

import (
	"errors"
	"strings"
	"sync"

	"github.com/notDuyLam/myshop-wp/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type AuthState int

const (
	Unprovisioned AuthState = iota
	Provisioned
	Authenticated
)

func (s AuthState) String() string {
	switch s {
	case Provisioned:
		return "provisioned"
	case Authenticated:
		return "authenticated"
	}
	return "unprovisioned"
}

// Bootstrap is the only credential accepted before an owner is provisioned.
type Bootstrap struct {
	Username string
	Password string
}

func DefaultBootstrap() Bootstrap {
	return Bootstrap{Username: "admin", Password: "admin123"}
}

const (
	msgCredentialsRequired = "Username and password are required"
	msgInvalidCredentials  = "Invalid username or password"
)

// AuthService gates entry with the single local owner credential.
type AuthService struct {
	mu            sync.Mutex
	creds         domain.CredentialStore
	bootstrap     Bootstrap
	hashCost      int
	authenticated bool
	log           zerolog.Logger
}

func NewAuthService(creds domain.CredentialStore, bootstrap Bootstrap, log zerolog.Logger) *AuthService {
	if strings.TrimSpace(bootstrap.Username) == "" || strings.TrimSpace(bootstrap.Password) == "" {
		bootstrap = DefaultBootstrap()
	}
	return &AuthService{
		creds:     creds,
		bootstrap: bootstrap,
		hashCost:  bcrypt.DefaultCost,
		log:       log.With().Str("component", "auth").Logger(),
	}
}

func (s *AuthService) State() (AuthState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *AuthService) stateLocked() (AuthState, error) {
	_, ok, err := s.creds.Owner()
	if err != nil {
		return Unprovisioned, domain.StoreFailure(err)
	}
	if !ok {
		return Unprovisioned, nil
	}
	// a logout from another process clears the persisted flag
	if s.authenticated && !s.creds.LoggedIn() {
		s.authenticated = false
		s.log.Info().Msg("session ended elsewhere")
	}
	if s.authenticated {
		return Authenticated, nil
	}
	return Provisioned, nil
}

// Resume restores an authenticated session from the persisted flag. It only
// applies to provisioned installations.
func (s *AuthService) Resume() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok, err := s.creds.Owner()
	if err != nil {
		return false, domain.StoreFailure(err)
	}
	if ok && s.creds.LoggedIn() {
		s.authenticated = true
	}
	return s.authenticated, nil
}

func (s *AuthService) Login(username, password string) error {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return domain.InvalidCredentials(msgCredentialsRequired)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok, err := s.creds.Owner()
	if err != nil {
		return domain.StoreFailure(err)
	}

	if !ok {
		if !strings.EqualFold(username, s.bootstrap.Username) || password != s.bootstrap.Password {
			s.log.Warn().Str("username", username).Msg("login rejected, installation not provisioned")
			return domain.InvalidCredentials(msgInvalidCredentials)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
		if err != nil {
			return domain.StoreFailure(err)
		}
		if err := s.creds.SaveOwner(domain.OwnerCredential{Username: username, PasswordHash: string(hash)}); err != nil {
			return domain.StoreFailure(err)
		}
		s.log.Info().Str("username", username).Msg("owner credential provisioned")
		return s.startSession()
	}

	if !strings.EqualFold(username, owner.Username) {
		return domain.InvalidCredentials(msgInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(owner.PasswordHash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.log.Error().Err(err).Msg("stored owner hash is unusable")
		}
		return domain.InvalidCredentials(msgInvalidCredentials)
	}
	return s.startSession()
}

func (s *AuthService) startSession() error {
	if err := s.creds.SetLoggedIn(true); err != nil {
		return domain.StoreFailure(err)
	}
	s.authenticated = true
	return nil
}

func (s *AuthService) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.authenticated = false
	if err := s.creds.SetLoggedIn(false); err != nil {
		return domain.StoreFailure(err)
	}
	return nil
}

// ChangePassword replaces the owner password. The session must be
// authenticated and current must verify.
func (s *AuthService) ChangePassword(current, next string) error {
	current = strings.TrimSpace(current)
	next = strings.TrimSpace(next)
	if next == "" {
		return domain.Validation("new password is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.stateLocked()
	if err != nil {
		return err
	}
	if state != Authenticated {
		return domain.InvalidCredentials("login required")
	}

	owner, _, err := s.creds.Owner()
	if err != nil {
		return domain.StoreFailure(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(owner.PasswordHash), []byte(current)) != nil {
		return domain.InvalidCredentials("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.hashCost)
	if err != nil {
		return domain.Validation("new password rejected: %v", err)
	}
	owner.PasswordHash = string(hash)
	if err := s.creds.SaveOwner(owner); err != nil {
		return domain.StoreFailure(err)
	}
	s.log.Info().Msg("owner password changed")
	return nil
}
