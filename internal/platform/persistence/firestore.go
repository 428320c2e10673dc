package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	pfirestore "github.com/hanko-field/storefront/internal/platform/firestore"
)

const (
	defaultFirestoreCollection = "storefront_state"
	defaultCleanupLimit        = 100
)

// FirestoreOption customises the FirestoreStore.
type FirestoreOption func(*FirestoreStore)

// WithFirestoreCollection overrides the collection holding state documents.
func WithFirestoreCollection(name string) FirestoreOption {
	return func(s *FirestoreStore) {
		if strings.TrimSpace(name) != "" {
			s.collection = strings.TrimSpace(name)
		}
	}
}

// WithFirestoreClock overrides the clock used for expiry.
func WithFirestoreClock(clock func() time.Time) FirestoreOption {
	return func(s *FirestoreStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// FirestoreStore persists values as documents in a single collection.
type FirestoreStore struct {
	provider   *pfirestore.Provider
	collection string
	clock      func() time.Time
}

type firestoreRecord struct {
	Key       string    `firestore:"key"`
	Value     string    `firestore:"value"`
	UpdatedAt time.Time `firestore:"updated_at"`
	ExpiresAt time.Time `firestore:"expires_at"`
}

// NewFirestoreStore constructs a Firestore-backed store.
func NewFirestoreStore(provider *pfirestore.Provider, opts ...FirestoreOption) (*FirestoreStore, error) {
	if provider == nil {
		return nil, errors.New("firestore store: provider is required")
	}
	s := &FirestoreStore{
		provider:   provider,
		collection: defaultFirestoreCollection,
		clock:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Save implements Store.
func (s *FirestoreStore) Save(ctx context.Context, key string, value any, ttl time.Duration) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	data, err := encode("firestore.save", value)
	if err != nil {
		return err
	}
	ref, err := s.doc(ctx, key)
	if err != nil {
		return err
	}
	now := s.clock().UTC()
	record := firestoreRecord{
		Key:       key,
		Value:     string(data),
		UpdatedAt: now,
		ExpiresAt: now.Add(normalizeTTL(ttl)),
	}
	if _, err := ref.Set(ctx, record); err != nil {
		return translateFirestoreError("firestore.save", err)
	}
	return nil
}

// Load implements Store. Expired documents read as absent until CleanupExpired removes them.
func (s *FirestoreStore) Load(ctx context.Context, key string, dest any) (bool, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return false, err
	}
	ref, err := s.doc(ctx, key)
	if err != nil {
		return false, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		if pfirestore.IsNotFound(err) {
			return false, nil
		}
		return false, translateFirestoreError("firestore.load", err)
	}

	var record firestoreRecord
	if err := snap.DataTo(&record); err != nil {
		return false, &Error{Op: "firestore.load", Err: err}
	}
	if !record.ExpiresAt.IsZero() && !s.clock().UTC().Before(record.ExpiresAt) {
		return false, nil
	}
	if err := decode("firestore.load", []byte(record.Value), dest); err != nil {
		return false, err
	}
	return true, nil
}

// Remove implements Store.
func (s *FirestoreStore) Remove(ctx context.Context, key string) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	ref, err := s.doc(ctx, key)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil && !pfirestore.IsNotFound(err) {
		return translateFirestoreError("firestore.remove", err)
	}
	return nil
}

// Ping verifies the client can be created.
func (s *FirestoreStore) Ping(ctx context.Context) error {
	if _, err := s.provider.Client(ctx); err != nil {
		return &Error{Op: "firestore.ping", Err: err, Unavailable: true}
	}
	return nil
}

// CleanupExpired deletes up to limit expired documents in one batch.
func (s *FirestoreStore) CleanupExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = defaultCleanupLimit
	}
	client, err := s.provider.Client(ctx)
	if err != nil {
		return 0, &Error{Op: "firestore.cleanup", Err: err, Unavailable: true}
	}

	docs, err := client.Collection(s.collection).
		Where("expires_at", "<=", now.UTC()).
		Limit(limit).
		Documents(ctx).
		GetAll()
	if err != nil {
		return 0, translateFirestoreError("firestore.cleanup", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	batch := client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(docs))
	for _, doc := range docs {
		job, err := batch.Delete(doc.Ref)
		if err != nil {
			batch.End()
			return 0, translateFirestoreError("firestore.cleanup", err)
		}
		jobs = append(jobs, job)
	}
	batch.End()

	removed := 0
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return removed, translateFirestoreError("firestore.cleanup", err)
		}
		removed++
	}
	return removed, nil
}

func (s *FirestoreStore) doc(ctx context.Context, key string) (*firestore.DocumentRef, error) {
	client, err := s.provider.Client(ctx)
	if err != nil {
		return nil, &Error{Op: "firestore.client", Err: err, Unavailable: true}
	}
	return client.Collection(s.collection).Doc(documentID(key)), nil
}

// documentID escapes the path separator Firestore reserves in document ids.
func documentID(key string) string {
	return strings.ReplaceAll(key, "/", "%2F")
}

func translateFirestoreError(op string, err error) error {
	wrapped := pfirestore.WrapError(op, err)
	var fsErr *pfirestore.Error
	if errors.As(wrapped, &fsErr) {
		return &Error{Op: op, Err: fsErr, Unavailable: fsErr.IsUnavailable(), Conflict: fsErr.IsConflict()}
	}
	return wrapped
}
