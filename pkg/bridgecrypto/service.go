package bridgecrypto

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/otpbridge/pkg/item"
	"github.com/dmitrymomot/otpbridge/pkg/logger"
	"github.com/dmitrymomot/otpbridge/pkg/secrets"
)

// KeyProvider supplies the shared symmetric key.
// sharedkeys.Repository implements it.
type KeyProvider interface {
	GetOrCreateSymmetricKey(ctx context.Context) ([]byte, error)
	GetSymmetricKey(ctx context.Context) ([]byte, error)
}

// Service encrypts and decrypts shared items.
type Service struct {
	keys     KeyProvider
	reporter logger.Reporter
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithReporter sets the sink for per-record decrypt failures.
func WithReporter(r logger.Reporter) Option {
	return func(s *Service) {
		if r != nil {
			s.reporter = r
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

// NewService creates a service reading the key from keys.
func NewService(keys KeyProvider, opts ...Option) (*Service, error) {
	if keys == nil {
		return nil, ErrNilKeyProvider
	}
	s := &Service{keys: keys, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("bridgecrypto"))
	if s.reporter == nil {
		s.reporter = logger.NewReporter(s.logger)
	}
	return s, nil
}

// Encrypt seals views into records, creating the shared key if the access
// group has none yet. Records carry no user id; the caller assigns it.
func (s *Service) Encrypt(ctx context.Context, views []item.View) ([]item.Record, error) {
	if len(views) == 0 {
		return []item.Record{}, nil
	}

	key, err := s.keys.GetOrCreateSymmetricKey(ctx)
	if err != nil {
		return nil, errors.Join(ErrEncryptFailed, err)
	}

	records := make([]item.Record, 0, len(views))
	for _, v := range views {
		r, err := encryptView(key, v)
		if err != nil {
			return nil, errors.Join(ErrEncryptFailed, err)
		}
		records = append(records, r)
	}
	return records, nil
}

// Decrypt opens records in order. Records that fail are reported and left
// out of the result. An error is returned only when the key itself cannot
// be read.
func (s *Service) Decrypt(ctx context.Context, records []item.Record) ([]item.View, error) {
	if len(records) == 0 {
		return []item.View{}, nil
	}

	key, err := s.keys.GetSymmetricKey(ctx)
	if err != nil {
		return nil, errors.Join(ErrDecryptFailed, err)
	}

	views := make([]*item.View, len(records))
	failures := make(map[int]error)
	for i, r := range records {
		v, err := decryptRecord(key, r)
		if err != nil {
			failures[i] = err
			continue
		}
		views[i] = &v
	}

	if len(failures) > 0 {
		s.retry(ctx, key, records, views, failures)
	}

	for i, r := range records {
		if err, failed := failures[i]; failed {
			s.reporter.Report(ctx, err, logger.ItemID(r.ID), logger.UserID(r.UserID))
		}
	}

	out := make([]item.View, 0, len(records)-len(failures))
	for _, v := range views {
		if v != nil {
			out = append(out, *v)
		}
	}
	if len(failures) > 0 {
		s.logger.WarnContext(ctx, "dropped undecryptable records",
			logger.Count(len(failures)), slog.Int("total", len(records)))
	}
	return out, nil
}

// retry re-reads the key once and, if it changed, decrypts the failed
// records again. Successes are removed from failures.
func (s *Service) retry(ctx context.Context, used []byte, records []item.Record, views []*item.View, failures map[int]error) {
	fresh, err := s.keys.GetSymmetricKey(ctx)
	if err != nil || bytes.Equal(fresh, used) {
		return
	}

	s.logger.DebugContext(ctx, "shared key changed during decrypt, retrying failed records",
		logger.Count(len(failures)))
	for i := range failures {
		v, err := decryptRecord(fresh, records[i])
		if err != nil {
			failures[i] = err
			continue
		}
		views[i] = &v
		delete(failures, i)
	}
}

func encryptView(key []byte, v item.View) (item.Record, error) {
	r := item.Record{
		ID:       v.ID,
		Name:     v.Name,
		Favorite: v.Favorite,
	}
	fields := []struct {
		label string
		plain string
		dst   *string
	}{
		{item.FieldTOTPKey, v.TOTPKey, &r.TOTPKey},
		{item.FieldUsername, v.Username, &r.Username},
		{item.FieldAccountDomain, v.AccountDomain, &r.AccountDomain},
		{item.FieldAccountEmail, v.AccountEmail, &r.AccountEmail},
	}
	for _, f := range fields {
		if f.plain == "" {
			continue
		}
		ct, err := secrets.EncryptString(key, f.label, f.plain, []byte(v.ID))
		if err != nil {
			return item.Record{}, err
		}
		*f.dst = ct
	}
	return r, nil
}

func decryptRecord(key []byte, r item.Record) (item.View, error) {
	v := item.View{
		ID:       r.ID,
		Name:     r.Name,
		Favorite: r.Favorite,
	}
	fields := []struct {
		label  string
		cipher string
		dst    *string
	}{
		{item.FieldTOTPKey, r.TOTPKey, &v.TOTPKey},
		{item.FieldUsername, r.Username, &v.Username},
		{item.FieldAccountDomain, r.AccountDomain, &v.AccountDomain},
		{item.FieldAccountEmail, r.AccountEmail, &v.AccountEmail},
	}
	for _, f := range fields {
		if f.cipher == "" {
			continue
		}
		plain, err := secrets.DecryptString(key, f.label, f.cipher, []byte(r.ID))
		if err != nil {
			return item.View{}, RecordError{ItemID: r.ID, Field: f.label, Err: err}
		}
		*f.dst = plain
	}
	return v, nil
}
