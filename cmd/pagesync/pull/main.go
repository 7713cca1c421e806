package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	pagesync "github.com/goliatone/go-pagesync"
	"github.com/goliatone/go-pagesync/cmd/pagesync/internal/bootstrap"
	synccmd "github.com/goliatone/go-pagesync/internal/commands/sync"
	"github.com/goliatone/go-pagesync/pkg/interfaces"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := runPull(os.Args[1:]); err != nil {
		log.Fatalf("pagesync pull: %v", err)
	}
}

func runPull(args []string) error {
	fs := flag.NewFlagSet("pagesync-pull", flag.ExitOnError)
	in := fs.String("in", "-", "Markup input file (or - for stdin)")
	out := fs.String("out", "-", "Markdown output file (or - for stdout)")
	macrosOut := fs.String("macros-out", "", "Optional file receiving the macro inventory as JSON")
	space := fs.String("space", "", "Remote space key")
	page := fs.String("page", "", "Remote page key")
	title := fs.String("title", "", "Remote page title")
	saveBaseline := fs.Bool("save-baseline", false, "Record the pulled body as the baseline snapshot")
	storageDriver := fs.String("storage-driver", "sqlite", "Baseline storage driver (sqlite|postgres)")
	storageDSN := fs.String("storage-dsn", "", "Baseline storage DSN (defaults to a local sqlite file)")
	logProvider := fs.String("log-provider", "", "Logging provider (console|gologger); empty disables logging")
	logLevel := fs.String("log-level", "info", "Minimum log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	markup, err := bootstrap.ReadInput(*in)
	if err != nil {
		return err
	}

	module, err := moduleBuilder(bootstrap.Options{
		StorageDriver: *storageDriver,
		StorageDSN:    *storageDSN,
		Baseline:      *saveBaseline,
		LogProvider:   *logProvider,
		LogLevel:      *logLevel,
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}

	var result *interfaces.PullResult
	handler := synccmd.NewPullPageHandler(module.Service, module.Logger, func(_ context.Context, res *interfaces.PullResult) {
		result = res
	})

	cmd := pagesync.PullPageCommand{
		Space:        *space,
		PageKey:      *page,
		Title:        *title,
		Markup:       markup,
		SaveBaseline: *saveBaseline,
	}
	if err := handler.Execute(context.Background(), cmd); err != nil {
		return fmt.Errorf("execute pull command: %w", err)
	}
	if result == nil {
		return fmt.Errorf("pull produced no result")
	}

	if err := bootstrap.WriteOutput(*out, result.Markdown); err != nil {
		return err
	}

	if *macrosOut != "" && len(result.Macros) > 0 {
		data, err := json.MarshalIndent(result.Macros, "", "  ")
		if err != nil {
			return fmt.Errorf("encode macros: %w", err)
		}
		if err := bootstrap.WriteOutput(*macrosOut, string(data)+"\n"); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "pulled %d bytes of markdown, %d macros preserved\n", len(result.Markdown), len(result.Macros))
	return nil
}
