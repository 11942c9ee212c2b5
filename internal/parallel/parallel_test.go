package parallel

import (
	"sync/atomic"
	"testing"
)

func TestFor(t *testing.T) {
	cfg := DefaultConfig()

	var counter int64
	n := 1000

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != int64(n) {
		t.Errorf("Expected %d, got %d", n, counter)
	}
}

func TestForGrid(t *testing.T) {
	cfg := DefaultConfig()

	width, height := 37, 29
	results := make([][]int32, height)
	for r := range results {
		results[r] = make([]int32, width)
	}

	ForGrid(width, height, func(row, col int) {
		atomic.AddInt32(&results[row][col], 1)
	}, cfg)

	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			if results[r][c] != 1 {
				t.Errorf("Cell [%d][%d] visited %d times", r, c, results[r][c])
			}
		}
	}
}

func TestForGrid_Empty(t *testing.T) {
	called := false
	ForGrid(0, 10, func(_, _ int) { called = true }, DefaultConfig())
	ForGrid(10, 0, func(_, _ int) { called = true }, DefaultConfig())
	if called {
		t.Error("Empty grid must not invoke f")
	}
}

func TestFor_Sequential(t *testing.T) {
	cfg := Config{Enabled: false}

	var counter int64
	For(100, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != 100 {
		t.Errorf("Expected 100, got %d", counter)
	}
}

func TestFor_SmallChunk(t *testing.T) {
	// Small work units fall back to sequential.
	cfg := DefaultConfig()

	var counter int64
	n := cfg.MinChunkSize - 1

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != int64(n) {
		t.Errorf("Expected %d, got %d", n, counter)
	}
}

func TestWithWorkers(t *testing.T) {
	cfg := DefaultConfig().WithWorkers(1)
	if cfg.Enabled {
		t.Error("One worker must disable parallelism")
	}

	cfg = DefaultConfig().WithWorkers(4)
	if !cfg.Enabled || cfg.NumWorkers != 4 {
		t.Errorf("Unexpected config %+v", cfg)
	}
}

func BenchmarkForGrid(b *testing.B) {
	cfg := DefaultConfig()
	width, height := 256, 256

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			ForGrid(width, height, func(r, c int) {
				atomic.AddInt64(&sum, int64(r*width+c))
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		cfgSeq := cfg
		cfgSeq.Enabled = false
		for i := 0; i < b.N; i++ {
			var sum int64
			ForGrid(width, height, func(r, c int) {
				atomic.AddInt64(&sum, int64(r*width+c))
			}, cfgSeq)
		}
	})
}
