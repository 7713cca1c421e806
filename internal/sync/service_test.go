package sync_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-pagesync/internal/baseline"
	syncsvc "github.com/goliatone/go-pagesync/internal/sync"
	"github.com/goliatone/go-pagesync/pkg/interfaces"
)

func TestPullConvertsMarkupAndRecordsMacros(t *testing.T) {
	service := syncsvc.New()

	result, err := service.Pull(context.Background(), interfaces.PullRequest{
		Space:   "DOCS",
		PageKey: "getting-started",
		Markup:  `<h1>Guide</h1><p>Welcome to the guide.</p><wiki:macro name="toc"><span>ignored</span></wiki:macro>`,
	})
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if !strings.Contains(result.Markdown, "# Guide") {
		t.Errorf("heading not converted: %q", result.Markdown)
	}
	if !strings.Contains(result.Markdown, "Welcome to the guide.") {
		t.Errorf("paragraph not converted: %q", result.Markdown)
	}
	if len(result.Macros) != 1 || result.Macros[0].Category != interfaces.MacroCategoryBlock {
		t.Fatalf("macro inventory wrong: %+v", result.Macros)
	}
	if strings.Contains(result.Markdown, "ignored") {
		t.Errorf("macro inner text leaked into markdown: %q", result.Markdown)
	}
}

func TestPullRequiresMarkup(t *testing.T) {
	service := syncsvc.New()
	if _, err := service.Pull(context.Background(), interfaces.PullRequest{Space: "DOCS", PageKey: "p"}); !errors.Is(err, syncsvc.ErrMarkupRequired) {
		t.Fatalf("expected ErrMarkupRequired, got %v", err)
	}
}

func TestPullSavesBaselineSnapshot(t *testing.T) {
	repo := baseline.NewMemoryRepository()
	service := syncsvc.New(syncsvc.WithBaselines(repo))

	markup := `<p>Remote body</p>`
	if _, err := service.Pull(context.Background(), interfaces.PullRequest{
		Space:        "DOCS",
		PageKey:      "Getting Started",
		Title:        "Getting Started",
		Markup:       markup,
		SaveBaseline: true,
	}); err != nil {
		t.Fatalf("Pull: %v", err)
	}

	snap, err := repo.Get(context.Background(), "DOCS", "getting-started")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if snap.Format != "markup" || snap.Content != markup {
		t.Fatalf("snapshot wrong: %+v", snap)
	}
}

func TestPushAppliesSurgicalUpdateToMarkup(t *testing.T) {
	service := syncsvc.New()

	result, err := service.Push(context.Background(), interfaces.PushRequest{
		Space:    "DOCS",
		PageKey:  "page",
		Markdown: "Hello brave world\n\n## Topics\n",
		Remote:   `<p>Hello world</p><h2>Topics</h2>`,
		Format:   interfaces.RemoteFormatMarkup,
	})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if len(result.Operations) != 1 {
		t.Fatalf("expected one operation, got %+v", result.Operations)
	}
	if result.Succeeded != 1 || result.Failed != 0 {
		t.Fatalf("counters: %+v", result)
	}
	if !strings.Contains(result.Content, "Hello brave world") {
		t.Errorf("update not applied: %s", result.Content)
	}
	if !strings.Contains(result.Content, "Topics") {
		t.Errorf("untouched heading lost: %s", result.Content)
	}
}

func TestPushPatchesNodeDocument(t *testing.T) {
	service := syncsvc.New()

	remote := `{"type":"doc","content":[` +
		`{"type":"paragraph","attrs":{"localId":"p1"},"content":[{"type":"text","text":"Hello world"}]},` +
		`{"type":"heading","attrs":{"level":2,"localId":"h1"},"content":[{"type":"text","text":"Topics"}]}]}`

	result, err := service.Push(context.Background(), interfaces.PushRequest{
		Space:    "DOCS",
		PageKey:  "page",
		Markdown: "Hello brave world\n\n## Topics\n",
		Remote:   remote,
		Format:   interfaces.RemoteFormatNodeDoc,
	})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if result.Succeeded != 1 || result.Failed != 0 {
		t.Fatalf("counters: %+v", result)
	}
	if !strings.Contains(result.Content, "Hello brave world") {
		t.Errorf("update not applied: %s", result.Content)
	}
	if !strings.Contains(result.Content, `"localId":"p1"`) {
		t.Errorf("local id lost: %s", result.Content)
	}
}

func TestPushPrefersBaselineAsDiffBase(t *testing.T) {
	repo := baseline.NewMemoryRepository()
	ctx := context.Background()

	// The baseline records the last-synced body; the remote has since
	// gained a paragraph the local markdown never saw. Diffing against
	// the baseline leaves that remote-only paragraph alone.
	if _, err := repo.Save(ctx, &baseline.Snapshot{
		Space:    "DOCS",
		PageKey:  "page",
		Format:   "markup",
		Content:  `<p>Hello world</p>`,
		SyncedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	service := syncsvc.New(syncsvc.WithBaselines(repo))
	result, err := service.Push(ctx, interfaces.PushRequest{
		Space:    "DOCS",
		PageKey:  "page",
		Markdown: "Hello brave world\n",
		Remote:   `<p>Hello world</p><p>Added remotely</p>`,
		Format:   interfaces.RemoteFormatMarkup,
	})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if !strings.Contains(result.Content, "Hello brave world") {
		t.Errorf("update not applied: %s", result.Content)
	}
	if !strings.Contains(result.Content, "Added remotely") {
		t.Errorf("remote-only paragraph deleted: %s", result.Content)
	}
}

func TestPushSavesPatchedBaseline(t *testing.T) {
	repo := baseline.NewMemoryRepository()
	service := syncsvc.New(syncsvc.WithBaselines(repo))
	ctx := context.Background()

	result, err := service.Push(ctx, interfaces.PushRequest{
		Space:        "DOCS",
		PageKey:      "page",
		Markdown:     "Hello brave world\n",
		Remote:       `<p>Hello world</p>`,
		Format:       interfaces.RemoteFormatMarkup,
		SaveBaseline: true,
	})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}

	snap, err := repo.Get(ctx, "DOCS", "page")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if snap.Content != result.Content {
		t.Fatalf("baseline content %q != pushed content %q", snap.Content, result.Content)
	}
}

func TestPushRejectsUnknownFormat(t *testing.T) {
	service := syncsvc.New()
	_, err := service.Push(context.Background(), interfaces.PushRequest{
		Space:    "DOCS",
		PageKey:  "page",
		Markdown: "x\n",
		Remote:   "<p>x</p>",
		Format:   interfaces.RemoteFormat("xml"),
	})
	if !errors.Is(err, syncsvc.ErrFormatUnknown) {
		t.Fatalf("expected ErrFormatUnknown, got %v", err)
	}
}

func TestPreviewReportsOperationsWithoutApplying(t *testing.T) {
	service := syncsvc.New()

	result, err := service.Preview(context.Background(), interfaces.PreviewRequest{
		Markdown: "Hello brave world\n",
		Remote:   `<p>Hello world</p>`,
		Format:   interfaces.RemoteFormatMarkup,
	})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if len(result.Operations) != 1 {
		t.Fatalf("expected one planned operation, got %+v", result.Operations)
	}
	if result.Operations[0].New != "Hello brave world" {
		t.Fatalf("unexpected operation: %+v", result.Operations[0])
	}
}

func TestPreviewFiltersTitleHeadingOnBothSides(t *testing.T) {
	service := syncsvc.New()

	// The local file repeats the page title as its first heading; the
	// remote carries it too. Neither side should diff it.
	remote := `{"type":"doc","content":[` +
		`{"type":"heading","attrs":{"level":1,"localId":"h1"},"content":[{"type":"text","text":"My Page"}]},` +
		`{"type":"paragraph","attrs":{"localId":"p1"},"content":[{"type":"text","text":"Hello world"}]}]}`

	result, err := service.Preview(context.Background(), interfaces.PreviewRequest{
		Title:    "My Page",
		Markdown: "# My Page\n\nHello world\n",
		Remote:   remote,
		Format:   interfaces.RemoteFormatNodeDoc,
	})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if len(result.Operations) != 0 {
		t.Fatalf("expected no operations, got %+v", result.Operations)
	}
}

func TestPushFiltersTitleHeadingFromLocalMarkdown(t *testing.T) {
	service := syncsvc.New()

	result, err := service.Push(context.Background(), interfaces.PushRequest{
		Space:    "DOCS",
		PageKey:  "page",
		Title:    "My Page",
		Markdown: "# My Page\n\nHello world\n",
		Remote:   `<p>Hello world</p>`,
		Format:   interfaces.RemoteFormatMarkup,
	})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if len(result.Operations) != 0 {
		t.Fatalf("title heading planned as content: %+v", result.Operations)
	}
	if result.Content != `<p>Hello world</p>` {
		t.Errorf("remote body changed: %s", result.Content)
	}
}

func TestPreviewIdenticalSidesPlanNothing(t *testing.T) {
	service := syncsvc.New()

	result, err := service.Preview(context.Background(), interfaces.PreviewRequest{
		Markdown: "Hello world\n\n## Topics\n",
		Remote:   `<p>Hello world</p><h2>Topics</h2>`,
		Format:   interfaces.RemoteFormatMarkup,
	})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if len(result.Operations) != 0 {
		t.Fatalf("expected no operations, got %+v", result.Operations)
	}
}
