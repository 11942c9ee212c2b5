//go:build !windows

package main

import (
	"errors"

	"github.com/born-ml/gridkernel/internal/cli"
	"github.com/born-ml/gridkernel/internal/kernel"
)

// newBackend returns the backend selected by -backend and its release function.
func newBackend(cfg *cli.Config) (kernel.Backend, func(), error) {
	if cfg.Backend == cli.BackendWebGPU {
		return nil, nil, errors.New("webgpu backend is only available on windows")
	}
	return newCPUBackend(cfg), func() {}, nil
}
