package verify

import (
	"net/http"

	"github.com/jsh-team/precache/internal/precache/manifest"
	"github.com/jsh-team/precache/internal/utils/logger"
)

// processJob fetches one entry and compares it with its revision. Entries
// without a revision are only checked for presence.
func (p *VerifyWorkerPool) processJob(workerID int, job VerifyJob) Result {
	result := Result{Entry: job.Entry, URL: job.URL}

	body, status, err := p.fetcher.RateLimitedGet(job.Context, job.URL)
	if err != nil {
		logger.Debug("Verify worker %d failed to fetch %s: %v", workerID, job.URL, err)
		result.Status = StatusMissing
		result.Err = err
		return result
	}
	if status != http.StatusOK {
		logger.Debug("Verify worker %d got status %d for %s", workerID, status, job.URL)
		result.Status = StatusMissing
		return result
	}

	result.Actual = manifest.Revision(body)
	switch {
	case !job.Entry.HasRevision():
		result.Status = StatusUnchecked
	case *job.Entry.Revision == result.Actual:
		result.Status = StatusOK
	default:
		result.Status = StatusChanged
	}
	return result
}
