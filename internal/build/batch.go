package build

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"shadersmith/internal/options"
)

// Job is one file of a batch build.
type Job struct {
	Path    string
	Options options.BuildOptions
}

// Result pairs a job with its outcome. Exactly one of Artifact and Err
// is meaningful.
type Result struct {
	Job      Job
	Artifact Artifact
	Err      error
}

// BuildAll builds every job with at most jobs concurrent builds
// (GOMAXPROCS when jobs <= 0). A failed job does not stop the others;
// only context cancellation does. Results keep the order of the input.
func (b *Builder) BuildAll(ctx context.Context, batch []Job, jobs int) ([]Result, error) {
	results := make([]Result, len(batch))
	if len(batch) == 0 {
		return results, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(batch)))

	for i, job := range batch {
		results[i].Job = job
		b.emit(job.Path, StageLookup, StatusQueued, nil, 0)
		g.Go(func() error {
			select {
			case <-gctx.Done():
				results[i].Err = gctx.Err()
				return gctx.Err()
			default:
			}
			art, err := b.BuildFile(gctx, job.Path, job.Options)
			results[i].Artifact = art
			results[i].Err = err
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
