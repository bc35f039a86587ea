package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/markbookdev/markbook-classic-sub000/internal/legacy"
	"github.com/markbookdev/markbook-classic-sub000/internal/service"
	"github.com/markbookdev/markbook-classic-sub000/pkg/logger"
)

const (
	exitOK       = 0
	exitUsage    = 2
	exitNotFound = 3
	exitParse    = 4
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var (
		folder   string
		pretty   bool
		bundle   bool
		logLevel string
		timeout  time.Duration
	)

	fs := flag.NewFlagSet("legacy-inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&folder, "folder", "", "Legacy class folder to decode")
	fs.BoolVar(&pretty, "pretty", false, "Indent JSON output")
	fs.BoolVar(&bundle, "bundle", false, "Print the persistence bundle instead of the decoded files")
	fs.StringVar(&logLevel, "log-level", "info", "Log level")
	fs.DurationVar(&timeout, "timeout", time.Minute, "Decode timeout")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if folder == "" {
		fmt.Fprintln(stderr, "legacy-inspect: -folder is required")
		fs.Usage()
		return exitUsage
	}

	logr, err := logger.NewCLI(logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "legacy-inspect: init logger: %v\n", err)
		return exitUsage
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	decoded, err := decode(ctx, folder)
	if err != nil {
		logr.Error("decode failed", zap.String("folder", folder), zap.Error(err))
		switch {
		case errors.Is(err, legacy.ErrNotFound):
			return exitNotFound
		case errors.Is(err, legacy.ErrParseFailed):
			return exitParse
		default:
			return exitUsage
		}
	}
	for _, w := range decoded.Warnings {
		logr.Warn("legacy companion missing", zap.String("code", w.Code), zap.String("path", w.Path))
	}

	var out interface{} = decoded
	if bundle {
		out = service.BuildBundle(decoded, filepath.Base(filepath.Clean(folder)))
	}
	enc := json.NewEncoder(stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		logr.Error("encode output", zap.Error(err))
		return exitUsage
	}
	logr.Info("decoded legacy folder",
		zap.String("folder", folder),
		zap.Int("students", len(decoded.Roster.Students)),
		zap.Int("mark_sets", len(decoded.MarkSets)),
		zap.Int("warnings", len(decoded.Warnings)),
	)
	return exitOK
}

func decode(ctx context.Context, folder string) (*legacy.Folder, error) {
	files, err := legacy.Discover(folder)
	if err != nil {
		return nil, err
	}
	return legacy.DecodeFolder(ctx, files)
}
