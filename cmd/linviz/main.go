// linviz renders the timeline of a concurrent history and the partial
// linearizations a checker found for it.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

func init() {
	// read .env
	_ = godotenv.Load()
}

func main() {
	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the CLI against the given arguments, so it can be tested
// without a process.
func run(outW, errW io.Writer, args []string) error {
	root := newRootCmd(outW, errW)
	root.SetArgs(args)
	return root.Execute()
}

// newLogger creates a logger at the given level and format ("text" or
// "json"). Unknown levels fall back to warn.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler

	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}

	return slog.New(handler)
}

// getOutputFilename determines the output filename for the rendered file.
// If outputFile is provided and not empty, it returns that filename.
// Otherwise, it derives the filename from the dataset file by replacing
// the extension with ext (e.g., "history.json" becomes "history.svg").
func getOutputFilename(datasetFile, outputFile, ext string) string {
	if outputFile != "" {
		return outputFile
	}

	base := filepath.Base(datasetFile)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ext
}
