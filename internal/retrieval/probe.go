package retrieval

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// ProbeAttempt records one retrieval issued for a fallback probe.
type ProbeAttempt struct {
	Probe    string        `json:"probe"`
	Chunks   int           `json:"chunks"`
	Err      string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Failed reports whether the retriever returned an error for this probe.
func (a ProbeAttempt) Failed() bool {
	return a.Err != ""
}

// ProbeReport summarizes a fallback pass.
type ProbeReport struct {
	Attempts []ProbeAttempt `json:"attempts"`

	// Failures is the number of attempts whose retrieval errored.
	Failures int `json:"failures"`

	// Skipped counts blank or repeated probes that were never issued.
	Skipped int `json:"skipped"`

	// StoppedEarly is set when enough prioritized chunks were found before the
	// probe list was exhausted.
	StoppedEarly bool `json:"stopped_early"`

	// Canceled is set when the context ended before the probe list was exhausted.
	Canceled bool `json:"canceled,omitempty"`
}

// ProbePolicy issues fallback probes one at a time, in order, and stops once the
// merger holds EarlyStop prioritized chunks. Failed probes count as empty batches.
type ProbePolicy struct {
	Retriever Retriever

	// EarlyStop is the prioritized chunk count that ends probing.
	// A non-positive value never stops early.
	EarlyStop int

	Logger *slog.Logger
}

// Run issues probes against the retriever and folds every batch into m.
// It never returns an error: failures are logged and recorded in the report.
func (p ProbePolicy) Run(ctx context.Context, probes []string, m *Merger) ProbeReport {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var report ProbeReport
	issued := make(map[string]struct{}, len(probes))

	for i, probe := range probes {
		if p.EarlyStop > 0 && m.PrioritizedCount() >= p.EarlyStop {
			report.StoppedEarly = true
			report.Skipped += len(probes) - i
			break
		}
		if err := ctx.Err(); err != nil {
			logger.Warn("fallback probing interrupted", "remaining", len(probes)-i, "error", err)
			report.Canceled = true
			break
		}

		probe = strings.TrimSpace(probe)
		if probe == "" {
			report.Skipped++
			continue
		}
		if _, dup := issued[probe]; dup {
			report.Skipped++
			continue
		}
		issued[probe] = struct{}{}

		start := time.Now()
		chunks, err := p.Retriever.Retrieve(ctx, probe)
		attempt := ProbeAttempt{Probe: probe, Duration: time.Since(start)}
		if err != nil {
			logger.Warn("fallback probe failed", "probe", probe, "error", err)
			attempt.Err = err.Error()
			report.Failures++
			report.Attempts = append(report.Attempts, attempt)
			continue
		}

		for j := range chunks {
			if chunks[j].SourceQuery == "" {
				chunks[j].SourceQuery = probe
			}
		}
		attempt.Chunks = len(chunks)
		report.Attempts = append(report.Attempts, attempt)
		m.Add(chunks)

		logger.Debug("fallback probe issued",
			"probe", probe,
			"chunks", len(chunks),
			"prioritized", m.PrioritizedCount())
	}

	return report
}
