// Package verify checks a deployed site against the precache manifest
// injected into a built worker.
package verify

import (
	"context"
	"fmt"
	"os"

	"github.com/jsh-team/precache/internal/precache/injector"
	"github.com/jsh-team/precache/internal/precache/manifest"
	"github.com/jsh-team/precache/internal/utils/fetch"
	"github.com/jsh-team/precache/internal/utils/logger"
	"github.com/jsh-team/precache/internal/utils/url"
)

// NewVerifyWorkerPool creates a pool of maxWorkers workers sharing fetcher.
func NewVerifyWorkerPool(maxWorkers int, fetcher fetch.AssetFetcher) *VerifyWorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &VerifyWorkerPool{
		workers: maxWorkers,
		fetcher: fetcher,
	}
}

// ReadManifest extracts the injected manifest from a worker file.
func ReadManifest(path string) ([]manifest.Entry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read worker: %w", err)
	}

	entries, err := injector.Extract(string(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// Run checks every entry against baseURL and returns the results in
// manifest order. When ctx is cancelled, entries not yet checked are left
// out and ctx's error is returned.
func (p *VerifyWorkerPool) Run(ctx context.Context, baseURL string, entries []manifest.Entry) ([]Result, error) {
	base := url.DirectoryURL(baseURL)

	p.results = make([]Result, len(entries))
	p.jobQueue = make(chan VerifyJob, len(entries))

	for i, entry := range entries {
		target, err := url.ToAbsoluteURL(base, entry.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid url %s: %w", entry.URL, err)
		}
		p.jobQueue <- VerifyJob{Index: i, Entry: entry, URL: target, Context: ctx}
	}
	close(p.jobQueue)

	workers := min(p.workers, len(entries))
	for i := 0; i < workers; i++ {
		p.workerWg.Add(1)
		go p.worker(ctx, i)
	}
	p.workerWg.Wait()

	if err := ctx.Err(); err != nil {
		var done []Result
		for _, result := range p.results {
			if result.Status != "" {
				done = append(done, result)
			}
		}
		return done, err
	}

	return p.results, nil
}

// Summarize counts results per status.
func Summarize(results []Result) Summary {
	summary := Summary{}
	for _, result := range results {
		summary[result.Status]++
	}
	return summary
}

// worker is the main worker function that processes verify jobs
func (p *VerifyWorkerPool) worker(ctx context.Context, workerID int) {
	defer p.workerWg.Done()

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			if ctx.Err() != nil {
				return
			}
			// Each job owns its slot, so no lock is needed.
			p.results[job.Index] = p.processJob(workerID, job)

		case <-ctx.Done():
			logger.Debug("Verify worker %d stopped: %v", workerID, ctx.Err())
			return
		}
	}
}
