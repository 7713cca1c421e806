package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-pagesync/cmd/pagesync/internal/bootstrap"
	"github.com/goliatone/go-pagesync/internal/logging"
	"github.com/goliatone/go-pagesync/pkg/interfaces"
)

type stubSyncService struct {
	pullCalls int
	lastPull  interfaces.PullRequest
}

func (s *stubSyncService) Pull(_ context.Context, req interfaces.PullRequest) (*interfaces.PullResult, error) {
	s.pullCalls++
	s.lastPull = req
	return &interfaces.PullResult{
		Markdown: "# Converted\n",
		Macros:   []interfaces.MacroRecord{{Name: "toc", Category: interfaces.MacroCategoryBlock}},
	}, nil
}

func (s *stubSyncService) Push(context.Context, interfaces.PushRequest) (*interfaces.PushResult, error) {
	return &interfaces.PushResult{}, nil
}

func (s *stubSyncService) Preview(context.Context, interfaces.PreviewRequest) (*interfaces.PreviewResult, error) {
	return &interfaces.PreviewResult{}, nil
}

func TestRunPullWritesMarkdown(t *testing.T) {
	original := moduleBuilder
	defer func() { moduleBuilder = original }()

	svc := &stubSyncService{}
	moduleBuilder = func(bootstrap.Options) (*bootstrap.Module, error) {
		return &bootstrap.Module{Service: svc, Logger: logging.NoOp()}, nil
	}

	dir := t.TempDir()
	in := filepath.Join(dir, "page.html")
	out := filepath.Join(dir, "page.md")
	if err := os.WriteFile(in, []byte("<p>Hello</p>"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	if err := runPull([]string{
		"-in", in,
		"-out", out,
		"-space", "DOCS",
		"-page", "hello",
	}); err != nil {
		t.Fatalf("runPull: %v", err)
	}
	if svc.pullCalls != 1 {
		t.Fatalf("pull calls: %d", svc.pullCalls)
	}
	if svc.lastPull.Space != "DOCS" || svc.lastPull.Markup != "<p>Hello</p>" {
		t.Fatalf("request not forwarded: %+v", svc.lastPull)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "# Converted\n" {
		t.Fatalf("output: %q", data)
	}
}

func TestRunPullRequiresSpaceAndPage(t *testing.T) {
	original := moduleBuilder
	defer func() { moduleBuilder = original }()

	moduleBuilder = func(bootstrap.Options) (*bootstrap.Module, error) {
		return &bootstrap.Module{Service: &stubSyncService{}, Logger: logging.NoOp()}, nil
	}

	dir := t.TempDir()
	in := filepath.Join(dir, "page.html")
	if err := os.WriteFile(in, []byte("<p>Hello</p>"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	if err := runPull([]string{"-in", in}); err == nil {
		t.Fatal("expected a validation error without space and page")
	}
}
