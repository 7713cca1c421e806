package main

import (
	"context"
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
	if err := runPush(os.Args[1:]); err != nil {
		log.Fatalf("pagesync push: %v", err)
	}
}

func runPush(args []string) error {
	fs := flag.NewFlagSet("pagesync-push", flag.ExitOnError)
	markdownPath := fs.String("markdown", "-", "Local markdown file (or - for stdin)")
	remotePath := fs.String("remote", "", "Current remote body file")
	format := fs.String("format", "markup", "Remote body format (markup|nodedoc)")
	out := fs.String("out", "-", "Patched body output file (or - for stdout)")
	space := fs.String("space", "", "Remote space key")
	page := fs.String("page", "", "Remote page key")
	title := fs.String("title", "", "Remote page title")
	saveBaseline := fs.Bool("save-baseline", false, "Record the patched body as the new baseline snapshot")
	useBaseline := fs.Bool("use-baseline", false, "Diff against the stored baseline snapshot when present")
	storageDriver := fs.String("storage-driver", "sqlite", "Baseline storage driver (sqlite|postgres)")
	storageDSN := fs.String("storage-dsn", "", "Baseline storage DSN (defaults to a local sqlite file)")
	logProvider := fs.String("log-provider", "", "Logging provider (console|gologger); empty disables logging")
	logLevel := fs.String("log-level", "info", "Minimum log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	remoteFormat, err := bootstrap.ParseFormat(*format)
	if err != nil {
		return err
	}

	markdown, err := bootstrap.ReadInput(*markdownPath)
	if err != nil {
		return err
	}
	if *remotePath == "" {
		return fmt.Errorf("-remote is required")
	}
	remoteBody, err := bootstrap.ReadInput(*remotePath)
	if err != nil {
		return err
	}

	module, err := moduleBuilder(bootstrap.Options{
		StorageDriver: *storageDriver,
		StorageDSN:    *storageDSN,
		Baseline:      *saveBaseline || *useBaseline,
		LogProvider:   *logProvider,
		LogLevel:      *logLevel,
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}

	var result *interfaces.PushResult
	handler := synccmd.NewPushPageHandler(module.Service, module.Logger, func(_ context.Context, res *interfaces.PushResult) {
		result = res
	})

	cmd := pagesync.PushPageCommand{
		Space:        *space,
		PageKey:      *page,
		Title:        *title,
		Markdown:     markdown,
		Remote:       remoteBody,
		Format:       string(remoteFormat),
		SaveBaseline: *saveBaseline,
	}
	if err := handler.Execute(context.Background(), cmd); err != nil {
		return fmt.Errorf("execute push command: %w", err)
	}
	if result == nil {
		return fmt.Errorf("push produced no result")
	}

	if err := bootstrap.WriteOutput(*out, result.Content); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "applied %d operations: %d succeeded, %d failed\n",
		len(result.Operations), result.Succeeded, result.Failed)
	if result.Failed > 0 {
		os.Exit(2)
	}
	return nil
}
