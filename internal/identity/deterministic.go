package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// SnapshotUUID identifies the baseline snapshot for a page. One snapshot
// per (space, page) pair; repeated syncs upsert the same row.
func SnapshotUUID(space, pageKey string) uuid.UUID {
	return UUID("go-pagesync:snapshot:" + strings.TrimSpace(space) + ":" + strings.TrimSpace(pageKey))
}

// NodeLocalID mints a fresh localId for nodes inserted into a remote
// document. Unlike snapshots these are random on purpose: the remote end
// owns the namespace and only uniqueness matters.
func NodeLocalID() string {
	return uuid.New().String()
}
