package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"authgate/internal/identity/metrics"
	"authgate/internal/identity/models"
	"authgate/internal/identity/password"
	dErrors "authgate/pkg/domain-errors"
	"authgate/pkg/platform/sentinel"
)

// UserStore is the credential store surface the service depends on.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByName(ctx context.Context, name string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// Hasher is the one-way credential transform.
type Hasher interface {
	Hash(secret string) (string, error)
	Verify(secret, encoded string) (bool, error)
}

// Service implements registration and authentication against the credential
// store. It owns the uniqueness policy and the uniform login failure shape.
type Service struct {
	users   UserStore
	hasher  Hasher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(users UserStore, hasher Hasher, opts ...Option) *Service {
	s := &Service{
		users:  users,
		hasher: hasher,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new identity. Display name and email must be unused; the
// secret is hashed before anything touches the store. Exactly one record is
// created on success and none on any failure path.
func (s *Service) Register(ctx context.Context, name, email, secret string) (*models.User, error) {
	start := time.Now()
	defer s.observeRegister(start)

	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := s.users.FindByName(ctx, name); err == nil {
		s.incrementRegisterFailure("name_taken")
		return nil, dErrors.New(dErrors.CodeConflict, "display name already taken")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		s.incrementRegisterFailure("store")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check display name")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		s.incrementRegisterFailure("email_taken")
		return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		s.incrementRegisterFailure("store")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
	}

	hash, err := s.hasher.Hash(secret)
	if err != nil {
		s.incrementRegisterFailure("hash")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash credential")
	}

	user, err := models.NewUser(uuid.NewString(), name, email, hash, time.Now().UTC())
	if err != nil {
		s.incrementRegisterFailure("validation")
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost the check-then-create race; the store constraint is the
			// authoritative answer. Re-resolve which field collided.
			s.incrementRegisterFailure("conflict")
			return nil, s.resolveConflict(ctx, name, email)
		}
		s.incrementRegisterFailure("store")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create identity")
	}

	s.logger.InfoContext(ctx, "identity registered", "identity_id", user.ID)
	if s.metrics != nil {
		s.metrics.IncrementRegistrations()
	}
	return user, nil
}

// resolveConflict maps a store constraint violation back to the field-level
// registration error the caller expects. If the re-check itself fails we
// cannot tell which field collided, so the message stays generic.
func (s *Service) resolveConflict(ctx context.Context, name, email string) error {
	_, err := s.users.FindByName(ctx, name)
	switch {
	case err == nil:
		return dErrors.New(dErrors.CodeConflict, "display name already taken")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeConflict, "email already registered")
	default:
		return dErrors.New(dErrors.CodeConflict, "identity already exists")
	}
}

// errInvalidCredentials is the single failure shape for login. Unknown email
// and wrong secret are indistinguishable to the caller.
func errInvalidCredentials() error {
	return dErrors.New(dErrors.CodeUnauthorized, "Invalid credentials")
}

// Authenticate validates a claimed email/secret pair against the stored
// record and returns the matched identity.
func (s *Service) Authenticate(ctx context.Context, email, secret string) (*models.User, error) {
	start := time.Now()
	defer s.observeLogin(start)

	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.incrementLoginFailure()
			return nil, errInvalidCredentials()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up identity")
	}

	ok, err := s.hasher.Verify(secret, user.CredentialHash)
	if err != nil {
		if errors.Is(err, password.ErrInvalidHash) {
			// A corrupt stored hash is a verification failure, never a crash.
			s.logger.WarnContext(ctx, "stored credential hash is malformed",
				"identity_id", user.ID,
			)
			s.incrementLoginFailure()
			return nil, errInvalidCredentials()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify credential")
	}
	if !ok {
		s.incrementLoginFailure()
		return nil, errInvalidCredentials()
	}

	if s.metrics != nil {
		s.metrics.IncrementLogins()
	}
	return user, nil
}

func (s *Service) observeRegister(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveRegister(start)
	}
}

func (s *Service) observeLogin(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveLogin(start)
	}
}

func (s *Service) incrementRegisterFailure(reason string) {
	if s.metrics != nil {
		s.metrics.IncrementRegisterFailure(reason)
	}
}

func (s *Service) incrementLoginFailure() {
	if s.metrics != nil {
		s.metrics.IncrementLoginFailure()
	}
}
