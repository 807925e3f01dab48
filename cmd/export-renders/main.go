// Command export-renders writes the Isometric, Front, Top and Right views
// of a design document as PNG files. The document and output directory
// come from the FCSTD_FILE and OUTPUT_DIR environment variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/chazu/hullform/pkg/ctxlog"
	"github.com/chazu/hullform/pkg/render"
)

func main() {
	os.Exit(run(context.Background(), os.Getenv, os.Stdout))
}

func run(ctx context.Context, getenv func(string) string, out io.Writer) int {
	fcstd, outDir := getenv("FCSTD_FILE"), getenv("OUTPUT_DIR")
	if fcstd == "" || outDir == "" {
		fmt.Fprintln(out, "ERROR: FCSTD_FILE and OUTPUT_DIR environment variables must be set")
		fmt.Fprintf(out, "FCSTD_FILE=%s\n", fcstd)
		fmt.Fprintf(out, "OUTPUT_DIR=%s\n", outDir)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Info(fmt.Sprintf("Input file: %s", fcstd))
	logger.Info(fmt.Sprintf("Output dir: %s", outDir))

	if _, err := render.Export(ctx, fcstd, outDir); err != nil {
		if errors.Is(err, render.ErrInputNotFound) {
			logger.Error(fmt.Sprintf("ERROR: File not found: %s", fcstd))
		} else {
			logger.Error(fmt.Sprintf("ERROR: %v", err))
		}
		return 1
	}
	return 0
}
