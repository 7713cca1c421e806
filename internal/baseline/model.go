// Package baseline stores the last-synced snapshot per page. A push diffs
// local Markdown against this snapshot instead of the live remote body, so
// unrelated remote edits never show up as local changes.
package baseline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-slug"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Snapshot is one page's last-synced content record.
type Snapshot struct {
	bun.BaseModel `bun:"table:page_baselines,alias:pb"`

	ID      uuid.UUID `bun:"id,pk,type:uuid"     json:"id"`
	Space   string    `bun:"space,notnull"       json:"space"`
	PageKey string    `bun:"page_key,notnull"    json:"page_key"`
	Title   string    `bun:"title"               json:"title,omitempty"`
	// Format names the shape Content is stored in: "markup", "nodedoc" or
	// "markdown".
	Format    string    `bun:"format,notnull" json:"format"`
	Content   string    `bun:"content"        json:"content"`
	Version   int64     `bun:"version"        json:"version"`
	SyncedAt  time.Time `bun:"synced_at"      json:"synced_at"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Repository exposes persistence operations for snapshots.
type Repository interface {
	Save(ctx context.Context, snap *Snapshot) (*Snapshot, error)
	Get(ctx context.Context, space, pageKey string) (*Snapshot, error)
	List(ctx context.Context, space string) ([]*Snapshot, error)
	Delete(ctx context.Context, space, pageKey string) error
}

// NotFoundError is returned when a snapshot cannot be located.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// NormalizePageKey slugs a page title or key into the stored form.
func NormalizePageKey(key string) string {
	normalized, err := slug.Normalize(key)
	if err != nil || normalized == "" {
		return strings.ToLower(strings.TrimSpace(key))
	}
	return normalized
}

func cloneSnapshot(snap *Snapshot) *Snapshot {
	if snap == nil {
		return nil
	}
	cloned := *snap
	return &cloned
}
