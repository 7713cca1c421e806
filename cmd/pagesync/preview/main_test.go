package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-pagesync/block"
	"github.com/goliatone/go-pagesync/cmd/pagesync/internal/bootstrap"
	"github.com/goliatone/go-pagesync/internal/logging"
	"github.com/goliatone/go-pagesync/pkg/interfaces"
)

type stubSyncService struct {
	previewCalls int
	lastPreview  interfaces.PreviewRequest
}

func (s *stubSyncService) Pull(context.Context, interfaces.PullRequest) (*interfaces.PullResult, error) {
	return &interfaces.PullResult{}, nil
}

func (s *stubSyncService) Push(context.Context, interfaces.PushRequest) (*interfaces.PushResult, error) {
	return &interfaces.PushResult{}, nil
}

func (s *stubSyncService) Preview(_ context.Context, req interfaces.PreviewRequest) (*interfaces.PreviewResult, error) {
	s.previewCalls++
	s.lastPreview = req
	return &interfaces.PreviewResult{
		Operations: []block.Operation{{Type: block.OpUpdateText, Target: "old", New: "new"}},
	}, nil
}

func TestRunPreviewPlansOperations(t *testing.T) {
	original := moduleBuilder
	defer func() { moduleBuilder = original }()

	svc := &stubSyncService{}
	moduleBuilder = func(bootstrap.Options) (*bootstrap.Module, error) {
		return &bootstrap.Module{Service: svc, Logger: logging.NoOp()}, nil
	}

	dir := t.TempDir()
	markdown := filepath.Join(dir, "page.md")
	remote := filepath.Join(dir, "remote.json")
	if err := os.WriteFile(markdown, []byte("# Local\n"), 0o644); err != nil {
		t.Fatalf("write markdown: %v", err)
	}
	if err := os.WriteFile(remote, []byte(`{"type":"doc","content":[]}`), 0o644); err != nil {
		t.Fatalf("write remote: %v", err)
	}

	if err := runPreview([]string{
		"-markdown", markdown,
		"-remote", remote,
		"-format", "nodedoc",
	}); err != nil {
		t.Fatalf("runPreview: %v", err)
	}
	if svc.previewCalls != 1 {
		t.Fatalf("preview calls: %d", svc.previewCalls)
	}
	if svc.lastPreview.Format != interfaces.RemoteFormatNodeDoc {
		t.Fatalf("format: %q", svc.lastPreview.Format)
	}
}
