// Package draft keeps optimization results in redis until an admin confirms them.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Client is the part of *redis.Client the store needs.
type Client interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type Store struct {
	client    Client
	ttl       time.Duration
	opTimeout time.Duration
	now       func() time.Time
}

func NewStore(client Client, ttl, opTimeout time.Duration) *Store {
	return &Store{
		client:    client,
		ttl:       ttl,
		opTimeout: opTimeout,
		now:       time.Now,
	}
}

func key(id string) string {
	return "assignment_draft_" + id
}

// Save assigns a fresh ID and expiry to d and stores it.
func (s *Store) Save(ctx context.Context, d *domain.AssignmentDraft) error {
	d.ID = uuid.NewString()
	d.CreatedAt = s.now()
	d.ExpiresAt = d.CreatedAt.Add(s.ttl)

	data, err := json.Marshal(d)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	return s.client.Set(ctx, key(d.ID), data, s.ttl).Err()
}

func (s *Store) Get(ctx context.Context, id string) (*domain.AssignmentDraft, error) {
	if err := uuid.Validate(id); err != nil {
		return nil, domain.ErrDraftNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	data, err := s.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrDraftNotFound
		}
		return nil, err
	}

	d := &domain.AssignmentDraft{}
	if err := json.Unmarshal(data, d); err != nil {
		return nil, err
	}

	return d, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	return s.client.Del(ctx, key(id)).Err()
}
