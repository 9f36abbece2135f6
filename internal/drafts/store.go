// internal/drafts/store.go
package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"procurement-workers/internal/models"
	"procurement-workers/internal/qualification"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("draft not found")

// Draft is a partially completed vendor submission.
type Draft struct {
	ID         string                   `json:"id"`
	VendorID   string                   `json:"vendorId,omitempty"`
	State      qualification.State      `json:"state"`
	Submission qualification.Submission `json:"submission"`
	UpdatedAt  time.Time                `json:"updatedAt"`
}

// Store persists drafts by ID.
type Store interface {
	Save(ctx context.Context, d Draft) (models.DraftMetadata, error)
	Load(ctx context.Context, id string) (Draft, error)
	List(ctx context.Context, vendorID string) ([]models.DraftMetadata, error)
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps each draft as one JSON value under prefix+id and lets
// Redis expire it after ttl.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, now: time.Now}
}

// WithClock replaces the clock used to stamp UpdatedAt.
func (s *RedisStore) WithClock(now func() time.Time) *RedisStore {
	s.now = now
	return s
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Save writes d, assigning an ID when it has none. A draft is always stored
// in the DRAFT state.
func (s *RedisStore) Save(ctx context.Context, d Draft) (models.DraftMetadata, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.State = qualification.StateDraft
	d.UpdatedAt = s.now().UTC()

	data, err := json.Marshal(d)
	if err != nil {
		return models.DraftMetadata{}, fmt.Errorf("encode draft %s: %w", d.ID, err)
	}
	if err := s.client.Set(ctx, s.key(d.ID), data, s.ttl).Err(); err != nil {
		return models.DraftMetadata{}, fmt.Errorf("save draft %s: %w", d.ID, err)
	}
	return metadata(d, len(data)), nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (Draft, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Draft{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Draft{}, fmt.Errorf("load draft %s: %w", id, err)
	}
	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return Draft{}, fmt.Errorf("decode draft %s: %w", id, err)
	}
	return d, nil
}

// globEscaper quotes the characters SCAN MATCH treats as pattern syntax.
var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// List returns metadata for stored drafts, newest first. An empty vendorID
// lists every draft.
func (s *RedisStore) List(ctx context.Context, vendorID string) ([]models.DraftMetadata, error) {
	var out []models.DraftMetadata

	iter := s.client.Scan(ctx, 0, globEscaper.Replace(s.prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue // expired between SCAN and GET
		}
		if err != nil {
			return nil, fmt.Errorf("list drafts: %w", err)
		}
		var d Draft
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("decode draft %s: %w", strings.TrimPrefix(key, s.prefix), err)
		}
		if vendorID != "" && d.VendorID != vendorID {
			continue
		}
		out = append(out, metadata(d, len(data)))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("delete draft %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func metadata(d Draft, size int) models.DraftMetadata {
	return models.DraftMetadata{
		ID:        d.ID,
		VendorID:  d.VendorID,
		SizeBytes: size,
		UpdatedAt: d.UpdatedAt,
	}
}
