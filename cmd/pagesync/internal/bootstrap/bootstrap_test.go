package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	pagesync "github.com/goliatone/go-pagesync"
)

func TestBuildModuleDefaults(t *testing.T) {
	module, err := BuildModule(Options{})
	if err != nil {
		t.Fatalf("BuildModule: %v", err)
	}
	if module.Module == nil || module.Service == nil || module.Logger == nil {
		t.Fatalf("incomplete module: %+v", module)
	}
	if module.Module.Links() != nil {
		t.Fatal("remote links should stay disabled without a base URL")
	}
}

func TestBuildModuleEnablesRemoteLinks(t *testing.T) {
	module, err := BuildModule(Options{RemoteBaseURL: "https://wiki.example.com"})
	if err != nil {
		t.Fatalf("BuildModule: %v", err)
	}
	if module.Module.Links() == nil || !module.Module.Links().Enabled() {
		t.Fatal("remote links not enabled")
	}
}

func TestParseFormat(t *testing.T) {
	if format, err := ParseFormat("Markup"); err != nil || format != pagesync.FormatMarkup {
		t.Fatalf("markup: %v %v", format, err)
	}
	if format, err := ParseFormat("nodedoc"); err != nil || format != pagesync.FormatNodeDoc {
		t.Fatalf("nodedoc: %v %v", format, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "body.txt")

	if err := WriteOutput(path, "content"); err != nil {
		t.Fatalf("WriteOutput: %v", err)
	}
	got, err := ReadInput(path)
	if err != nil {
		t.Fatalf("ReadInput: %v", err)
	}
	if got != "content" {
		t.Fatalf("round trip: %q", got)
	}

	if _, err := ReadInput(filepath.Join(dir, "missing.txt")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("output file missing: %v", err)
	}
}
