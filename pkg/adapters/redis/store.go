package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/gator/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces calibration keys.
const DefaultPrefix = "gator:calibration:"

// Store implements ports.CalibrationStore using Redis. Matrices are stored in
// the same plain-rows text as the file store, so they are readable with redis-cli.
type Store struct {
	client *backend.Client
	prefix string
}

type Option func(*Store)

// WithPrefix sets the key prefix for calibrations.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(profile string) string {
	return s.prefix + profile
}

func (s *Store) indexKey() string {
	return s.prefix + "_index"
}

// Save persists the matrix and records the profile in the index, scored by save time.
func (s *Store) Save(ctx context.Context, profile string, m domain.AffineMatrix) error {
	if err := domain.ValidateProfileName(profile); err != nil {
		return err
	}
	data, err := m.MarshalText()
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(profile), data, 0)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  float64(time.Now().Unix()),
		Member: profile,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the matrix for profile.
func (s *Store) Load(ctx context.Context, profile string) (domain.AffineMatrix, error) {
	var m domain.AffineMatrix
	val, err := s.client.Get(ctx, s.key(profile)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return m, domain.ErrCalibrationNotFound
		}
		return m, fmt.Errorf("failed to get from redis: %w", err)
	}
	if err := m.UnmarshalText(val); err != nil {
		return m, fmt.Errorf("calibration %q: %w", profile, err)
	}
	return m, nil
}

// Delete removes the matrix and its index entry.
func (s *Store) Delete(ctx context.Context, profile string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(profile))
	pipe.ZRem(ctx, s.indexKey(), profile)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns the profiles in the index, oldest save first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	profiles, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list calibrations: %w", err)
	}
	return profiles, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
