package sessiontimeout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/otpbridge/pkg/keychain"
	"github.com/dmitrymomot/otpbridge/pkg/logger"
	"github.com/dmitrymomot/otpbridge/pkg/sharedkeys"
)

// Repository is the subset of sharedkeys.Repository used by the service.
type Repository interface {
	GetLastActiveTime(ctx context.Context, app keychain.Application, userID string) (time.Time, error)
	SetLastActiveTime(ctx context.Context, app keychain.Application, userID string, t time.Time) error
	ClearLastActiveTime(ctx context.Context, app keychain.Application, userID string) error
	GetTimeoutPolicy(ctx context.Context, app keychain.Application, userID string) (sharedkeys.TimeoutPolicy, error)
	SetTimeoutPolicy(ctx context.Context, app keychain.Application, userID string, p sharedkeys.TimeoutPolicy) error
	ClearTimeoutPolicy(ctx context.Context, app keychain.Application, userID string) error
}

// Service publishes and evaluates shared session timeouts.
// Writes always target the application the service was created for.
type Service struct {
	repo   Repository
	app    keychain.Application
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithNow replaces the wall clock.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a service writing entries on behalf of app.
func NewService(repo Repository, app keychain.Application, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, ErrNilRepository
	}
	if !app.Valid() {
		return nil, keychain.ErrInvalidKey
	}

	s := &Service{
		repo:   repo,
		app:    app,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("sessiontimeout"), logger.Application(string(app)))
	return s, nil
}

// UpdateTimeout publishes policy for userID together with the last activity.
// A nil lastActive leaves the stored last activity untouched. Policies
// without a computable deadline clear both entries instead.
func (s *Service) UpdateTimeout(ctx context.Context, userID string, lastActive *time.Time, policy sharedkeys.TimeoutPolicy) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if err := policy.Validate(); err != nil {
		return err
	}
	if !policy.Computable() {
		s.logger.DebugContext(ctx, "timeout not computable, clearing",
			logger.UserID(userID), slog.String("policy", policy.String()))
		return s.ClearTimeout(ctx, userID)
	}

	if lastActive != nil {
		if err := s.repo.SetLastActiveTime(ctx, s.app, userID, *lastActive); err != nil {
			return err
		}
	}
	return s.repo.SetTimeoutPolicy(ctx, s.app, userID, policy)
}

// ClearTimeout removes the published policy and last activity of userID.
func (s *Service) ClearTimeout(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	return errors.Join(
		s.repo.ClearTimeoutPolicy(ctx, s.app, userID),
		s.repo.ClearLastActiveTime(ctx, s.app, userID),
	)
}

// SetLastActiveTime records now as the last activity of userID.
func (s *Service) SetLastActiveTime(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	return s.repo.SetLastActiveTime(ctx, s.app, userID, s.now())
}

// HasPassedTimeout reports whether the session of userID in app is over.
// It returns ErrAccountNotFound when app never published a policy for userID.
func (s *Service) HasPassedTimeout(ctx context.Context, app keychain.Application, userID string, isAppRestart bool) (bool, error) {
	policy, err := s.repo.GetTimeoutPolicy(ctx, app, userID)
	if errors.Is(err, keychain.ErrNotFound) {
		return false, ErrAccountNotFound
	}
	if err != nil {
		return false, err
	}

	now := s.now()
	switch policy.Kind {
	case sharedkeys.PolicyNever:
		return false, nil
	case sharedkeys.PolicyOnAppRestart:
		return isAppRestart, nil
	case sharedkeys.PolicyCustom:
		return !now.Before(policy.Date), nil
	case sharedkeys.PolicyAfter:
		last, err := s.repo.GetLastActiveTime(ctx, app, userID)
		if errors.Is(err, keychain.ErrNotFound) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		return now.Sub(last) >= policy.Duration(), nil
	default:
		return false, sharedkeys.ErrInvalidPolicy
	}
}

// IsLocked reports whether shared data of userID must stay hidden.
// Any failure to evaluate the timeout, including a missing account, counts
// as locked.
func (s *Service) IsLocked(ctx context.Context, app keychain.Application, userID string) bool {
	passed, err := s.HasPassedTimeout(ctx, app, userID, false)
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			s.logger.WarnContext(ctx, "failed to evaluate session timeout",
				logger.UserID(userID), logger.Error(err))
		}
		return true
	}
	return passed
}
