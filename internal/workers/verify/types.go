package verify

import (
	"context"
	"sync"

	"github.com/jsh-team/precache/internal/precache/manifest"
	"github.com/jsh-team/precache/internal/utils/fetch"
)

// Status is the outcome of checking one manifest entry.
type Status string

const (
	StatusOK        Status = "ok"
	StatusChanged   Status = "changed"
	StatusMissing   Status = "missing"
	StatusUnchecked Status = "unchecked"
)

// VerifyJob checks one manifest entry.
type VerifyJob struct {
	Index   int
	Entry   manifest.Entry
	URL     string
	Context context.Context
}

// Result is the outcome for one manifest entry.
type Result struct {
	Entry  manifest.Entry
	URL    string
	Status Status
	// Actual is the MD5 of the deployed content; empty when not fetched.
	Actual string
	Err    error
}

// VerifyWorkerPool checks manifest entries on a bounded number of workers.
type VerifyWorkerPool struct {
	workers  int
	fetcher  fetch.AssetFetcher
	jobQueue chan VerifyJob
	results  []Result
	workerWg sync.WaitGroup
}

// Summary counts results per status.
type Summary map[Status]int

// Failed reports whether any entry changed or is missing.
func (s Summary) Failed() bool {
	return s[StatusChanged] > 0 || s[StatusMissing] > 0
}
