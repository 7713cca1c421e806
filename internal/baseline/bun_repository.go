package baseline

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pagesync/internal/identity"
)

// NewSnapshotRepository creates the raw bun repository for snapshot records.
func NewSnapshotRepository(db *bun.DB) repository.Repository[*Snapshot] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Snapshot]{
		NewRecord: func() *Snapshot { return &Snapshot{} },
		GetID: func(snap *Snapshot) uuid.UUID {
			return snap.ID
		},
		SetID: func(snap *Snapshot, id uuid.UUID) {
			snap.ID = id
		},
		GetIdentifier: func() string {
			return "page_key"
		},
		GetIdentifierValue: func(snap *Snapshot) string {
			return snap.PageKey
		},
	})
}

// BunRepository implements Repository over a bun database with optional
// caching.
type BunRepository struct {
	repo repository.Repository[*Snapshot]
}

// NewBunRepository creates a snapshot repository without caching.
func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache creates a snapshot repository with caching
// support. Cache service and serializer must both be supplied to enable it.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunRepository {
	base := NewSnapshotRepository(db)
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
	}
	return &BunRepository{repo: base}
}

// Save upserts the snapshot for its (space, page) pair. The row ID is
// deterministic, so repeated syncs update in place.
func (r *BunRepository) Save(ctx context.Context, snap *Snapshot) (*Snapshot, error) {
	record := cloneSnapshot(snap)
	record.PageKey = NormalizePageKey(record.PageKey)
	record.ID = identity.SnapshotUUID(record.Space, record.PageKey)
	record.UpdatedAt = time.Now().UTC()

	existing, err := r.repo.GetByID(ctx, record.ID.String())
	if err != nil {
		if !goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
			return nil, fmt.Errorf("baseline repository error: %w", err)
		}
		record.CreatedAt = record.UpdatedAt
		created, err := r.repo.Create(ctx, record)
		if err != nil {
			return nil, fmt.Errorf("baseline repository error: %w", err)
		}
		return created, nil
	}

	record.CreatedAt = existing.CreatedAt
	updated, err := r.repo.Update(ctx, record,
		repository.UpdateByID(record.ID.String()),
		repository.UpdateColumns(
			"space",
			"page_key",
			"title",
			"format",
			"content",
			"version",
			"synced_at",
			"updated_at",
		),
	)
	if err != nil {
		return nil, fmt.Errorf("baseline repository error: %w", err)
	}
	return updated, nil
}

func (r *BunRepository) Get(ctx context.Context, space, pageKey string) (*Snapshot, error) {
	id := identity.SnapshotUUID(space, NormalizePageKey(pageKey))
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, space+"/"+NormalizePageKey(pageKey))
	}
	return record, nil
}

func (r *BunRepository) List(ctx context.Context, space string) ([]*Snapshot, error) {
	records, _, err := r.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.space = ?", space).Order("page_key ASC")
	}))
	if err != nil {
		return nil, fmt.Errorf("baseline repository error: %w", err)
	}
	return records, nil
}

func (r *BunRepository) Delete(ctx context.Context, space, pageKey string) error {
	id := identity.SnapshotUUID(space, NormalizePageKey(pageKey))
	if _, err := r.repo.GetByID(ctx, id.String()); err != nil {
		return mapRepositoryError(err, space+"/"+NormalizePageKey(pageKey))
	}
	return r.repo.Delete(ctx, &Snapshot{ID: id})
}

func mapRepositoryError(err error, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: "baseline", Key: key}
	}
	return fmt.Errorf("baseline repository error: %w", err)
}
