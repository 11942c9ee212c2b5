//go:build windows

package main

import (
	"github.com/born-ml/gridkernel/internal/backend/webgpu"
	"github.com/born-ml/gridkernel/internal/cli"
	"github.com/born-ml/gridkernel/internal/kernel"
)

// newBackend returns the backend selected by -backend and its release function.
func newBackend(cfg *cli.Config) (kernel.Backend, func(), error) {
	if cfg.Backend != cli.BackendWebGPU {
		return newCPUBackend(cfg), func() {}, nil
	}
	gpu, err := webgpu.New()
	if err != nil {
		return nil, nil, err
	}
	return gpu, gpu.Release, nil
}
