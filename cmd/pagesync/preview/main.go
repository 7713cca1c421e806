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
	if err := runPreview(os.Args[1:]); err != nil {
		log.Fatalf("pagesync preview: %v", err)
	}
}

func runPreview(args []string) error {
	fs := flag.NewFlagSet("pagesync-preview", flag.ExitOnError)
	markdownPath := fs.String("markdown", "-", "Local markdown file (or - for stdin)")
	remotePath := fs.String("remote", "", "Current remote body file")
	format := fs.String("format", "markup", "Remote body format (markup|nodedoc)")
	title := fs.String("title", "", "Remote page title")
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
		LogProvider: *logProvider,
		LogLevel:    *logLevel,
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}

	var result *interfaces.PreviewResult
	handler := synccmd.NewPreviewDiffHandler(module.Service, module.Logger, func(_ context.Context, res *interfaces.PreviewResult) {
		result = res
	})

	cmd := pagesync.PreviewDiffCommand{
		Title:    *title,
		Markdown: markdown,
		Remote:   remoteBody,
		Format:   string(remoteFormat),
	}
	if err := handler.Execute(context.Background(), cmd); err != nil {
		return fmt.Errorf("execute preview command: %w", err)
	}
	if result == nil {
		return fmt.Errorf("preview produced no result")
	}

	encoder := json.NewEncoder(os.Stdout)
	for _, op := range result.Operations {
		if err := encoder.Encode(op); err != nil {
			return fmt.Errorf("encode operation: %w", err)
		}
	}
	fmt.Fprintf(os.Stderr, "%d operations planned\n", len(result.Operations))
	return nil
}
