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
	pushCalls int
	lastPush  interfaces.PushRequest
}

func (s *stubSyncService) Pull(context.Context, interfaces.PullRequest) (*interfaces.PullResult, error) {
	return &interfaces.PullResult{}, nil
}

func (s *stubSyncService) Push(_ context.Context, req interfaces.PushRequest) (*interfaces.PushResult, error) {
	s.pushCalls++
	s.lastPush = req
	return &interfaces.PushResult{
		Content:    "<p>patched</p>",
		Operations: []block.Operation{{Type: block.OpUpdateText, Target: "old", New: "new"}},
		Succeeded:  1,
	}, nil
}

func (s *stubSyncService) Preview(context.Context, interfaces.PreviewRequest) (*interfaces.PreviewResult, error) {
	return &interfaces.PreviewResult{}, nil
}

func TestRunPushWritesPatchedBody(t *testing.T) {
	original := moduleBuilder
	defer func() { moduleBuilder = original }()

	svc := &stubSyncService{}
	moduleBuilder = func(bootstrap.Options) (*bootstrap.Module, error) {
		return &bootstrap.Module{Service: svc, Logger: logging.NoOp()}, nil
	}

	dir := t.TempDir()
	markdown := filepath.Join(dir, "page.md")
	remote := filepath.Join(dir, "remote.html")
	out := filepath.Join(dir, "patched.html")
	if err := os.WriteFile(markdown, []byte("# Local\n"), 0o644); err != nil {
		t.Fatalf("write markdown: %v", err)
	}
	if err := os.WriteFile(remote, []byte("<p>old</p>"), 0o644); err != nil {
		t.Fatalf("write remote: %v", err)
	}

	if err := runPush([]string{
		"-markdown", markdown,
		"-remote", remote,
		"-format", "markup",
		"-out", out,
		"-space", "DOCS",
		"-page", "page",
	}); err != nil {
		t.Fatalf("runPush: %v", err)
	}
	if svc.pushCalls != 1 {
		t.Fatalf("push calls: %d", svc.pushCalls)
	}
	if svc.lastPush.Format != interfaces.RemoteFormatMarkup {
		t.Fatalf("format: %q", svc.lastPush.Format)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "<p>patched</p>" {
		t.Fatalf("output: %q", data)
	}
}

func TestRunPushRejectsUnknownFormat(t *testing.T) {
	original := moduleBuilder
	defer func() { moduleBuilder = original }()

	moduleBuilder = func(bootstrap.Options) (*bootstrap.Module, error) {
		return &bootstrap.Module{Service: &stubSyncService{}, Logger: logging.NoOp()}, nil
	}

	if err := runPush([]string{"-remote", "remote.html", "-format", "xml"}); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}

func TestRunPushRequiresRemote(t *testing.T) {
	original := moduleBuilder
	defer func() { moduleBuilder = original }()

	moduleBuilder = func(bootstrap.Options) (*bootstrap.Module, error) {
		return &bootstrap.Module{Service: &stubSyncService{}, Logger: logging.NoOp()}, nil
	}

	dir := t.TempDir()
	markdown := filepath.Join(dir, "page.md")
	if err := os.WriteFile(markdown, []byte("# Local\n"), 0o644); err != nil {
		t.Fatalf("write markdown: %v", err)
	}

	if err := runPush([]string{"-markdown", markdown}); err == nil {
		t.Fatal("expected an error without -remote")
	}
}
