package scene

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/pitch.replay/internal/monitoring"
)

// chunksPerWorker controls how finely frames are split between workers.
const chunksPerWorker = 4

// Precompute composes every frame of src using up to workers goroutines.
// The result always has src.Len() entries in frame-index order. A frame
// that fails to compose, or panics, is replaced by Placeholder(i) and
// logged. Cancelling ctx aborts the run and returns ctx.Err().
func Precompute(ctx context.Context, src Source, workers int) ([]Scene, error) {
	if workers < 1 {
		workers = 1
	}
	n := src.Len()
	results := make([]Scene, n)
	if n == 0 {
		return results, ctx.Err()
	}

	chunk := (n + workers*chunksPerWorker - 1) / (workers * chunksPerWorker)
	if chunk < 1 {
		chunk = 1
	}

	var placeholders atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		if gctx.Err() != nil {
			break
		}
		hi := min(lo+chunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				s, err := compose(src, i)
				if err != nil {
					monitoring.Logf("[scene] frame %d replaced by placeholder: %v", i, err)
					placeholders.Add(1)
					s = Placeholder(i)
				}
				results[i] = s
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p := placeholders.Load(); p > 0 {
		monitoring.Logf("[scene] precomputed %d frames, %d placeholders", n, p)
	}
	return results, nil
}

// compose converts a panic in src into an error for frame i.
func compose(src Source, i int) (s Scene, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic composing frame %d: %v", i, r)
		}
	}()
	return src.SceneAt(i)
}
