package baseline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-pagesync/internal/baseline"
	"github.com/goliatone/go-pagesync/internal/runtimeconfig"
	"github.com/goliatone/go-pagesync/pkg/testsupport"
)

func openConfig(driver, dsn string) runtimeconfig.StorageConfig {
	return runtimeconfig.StorageConfig{Driver: driver, DSN: dsn}
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqlDB, err := testsupport.NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("new sqlite db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	bunDB := bun.NewDB(sqlDB, sqlitedialect.New())
	bunDB.SetMaxOpenConns(1)

	if err := baseline.CreateSchema(context.Background(), bunDB); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return bunDB
}

func TestBunRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := baseline.NewBunRepository(newTestDB(t))

	syncedAt := time.Date(2026, 4, 12, 8, 30, 0, 0, time.UTC)
	saved, err := repo.Save(ctx, &baseline.Snapshot{
		Space:    "DOCS",
		PageKey:  "Release Notes",
		Title:    "Release Notes",
		Format:   "nodedoc",
		Content:  `{"type":"doc","content":[]}`,
		Version:  7,
		SyncedAt: syncedAt,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.PageKey != "release-notes" {
		t.Fatalf("expected slugged page key, got %q", saved.PageKey)
	}

	got, err := repo.Get(ctx, "DOCS", "release-notes")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Version != 7 || got.Format != "nodedoc" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}

	// Second save for the same page updates the same row.
	updated, err := repo.Save(ctx, &baseline.Snapshot{
		Space:    "DOCS",
		PageKey:  "release-notes",
		Title:    "Release Notes",
		Format:   "nodedoc",
		Content:  `{"type":"doc","content":[{"type":"paragraph"}]}`,
		Version:  8,
		SyncedAt: syncedAt.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("save update: %v", err)
	}
	if updated.ID != saved.ID {
		t.Fatalf("upsert changed the row ID: %s -> %s", saved.ID, updated.ID)
	}

	list, err := repo.List(ctx, "DOCS")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Version != 8 {
		t.Fatalf("expected one updated row, got %+v", list)
	}

	if err := repo.Delete(ctx, "DOCS", "release-notes"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var nf *baseline.NotFoundError
	if _, err := repo.Get(ctx, "DOCS", "release-notes"); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError after delete, got %v", err)
	}
}

func TestBunRepositoryListScopesToSpace(t *testing.T) {
	ctx := context.Background()
	repo := baseline.NewBunRepository(newTestDB(t))

	for _, row := range []struct{ space, page string }{
		{"DOCS", "zulu"},
		{"DOCS", "alpha"},
		{"OPS", "runbook"},
	} {
		if _, err := repo.Save(ctx, &baseline.Snapshot{Space: row.space, PageKey: row.page, Format: "markup"}); err != nil {
			t.Fatalf("save %s/%s: %v", row.space, row.page, err)
		}
	}

	list, err := repo.List(ctx, "DOCS")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].PageKey != "alpha" || list[1].PageKey != "zulu" {
		t.Fatalf("expected sorted DOCS rows, got %+v", list)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := baseline.Open(openConfig("oracle", "dsn")); err == nil {
		t.Fatalf("expected an error for an unsupported driver")
	}
}

func TestOpenSQLite(t *testing.T) {
	db, err := baseline.Open(openConfig("sqlite", "file::memory:?cache=shared"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := baseline.CreateSchema(context.Background(), db); err != nil {
		t.Fatalf("create schema: %v", err)
	}
}
