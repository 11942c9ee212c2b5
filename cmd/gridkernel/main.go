// Package main provides the gridkernel CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/born-ml/gridkernel/internal/backend/cpu"
	"github.com/born-ml/gridkernel/internal/cli"
	"github.com/born-ml/gridkernel/internal/config"
	"github.com/born-ml/gridkernel/internal/ctxlog"
	"github.com/born-ml/gridkernel/internal/kernel"
	"github.com/born-ml/gridkernel/internal/parallel"
)

func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(context.Background(), os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run loads the kernel file named by args, dispatches it and prints the
// output grid to outW, one row per line.
func run(ctx context.Context, outW, logW io.Writer, args []string) error {
	cfg, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := cli.NewLogger(cfg, logW)
	ctx = ctxlog.WithLogger(ctx, logger)

	file, err := config.Load(ctx, cfg.Path)
	if err != nil {
		return err
	}

	backend, release, err := newBackend(cfg)
	if err != nil {
		return err
	}
	defer release()

	session, err := kernel.NewSession(ctx, backend)
	if err != nil {
		return err
	}
	defer session.Close()

	res, runErr := file.Run(ctx, session)
	if cfg.PrintSource && session.Source() != "" {
		fmt.Fprintln(outW, session.Source())
	}
	if runErr != nil {
		return runErr
	}

	data, err := res.Read()
	if err != nil {
		return err
	}
	logger.Info("Kernel finished.", "backend", backend.Name(), "width", res.Width(), "height", res.Height())
	return printGrid(outW, data, res.Width(), res.Height())
}

// newCPUBackend builds the CPU backend honoring -workers.
func newCPUBackend(cfg *cli.Config) kernel.Backend {
	pcfg := parallel.DefaultConfig()
	if cfg.Workers > 0 {
		pcfg = pcfg.WithWorkers(cfg.Workers)
	}
	return cpu.NewWithConfig(pcfg)
}

func printGrid(w io.Writer, data []float32, width, height int) error {
	row := make([]string, width)
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			row[c] = strconv.FormatFloat(float64(data[r*width+c]), 'g', -1, 32)
		}
		if _, err := fmt.Fprintln(w, strings.Join(row, " ")); err != nil {
			return err
		}
	}
	return nil
}
