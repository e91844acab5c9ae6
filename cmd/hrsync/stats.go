package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/aybabtme/uniplot/histogram"

	"hrsync/engine"
)

const (
	histogramBins  = 10
	histogramWidth = 40
)

// printStats writes the request counters and a latency histogram.
func printStats(w io.Writer, stats *engine.Stats) {
	s := stats.Snapshot()
	fmt.Fprintf(w, "requests: issued %d, accepted %d, stale %d, mismatched %d, failed %d\n",
		s.Issued, s.Accepted, s.Stale, s.Mismatch, s.Failed)

	ms := stats.LatenciesMillis()
	if len(ms) == 0 {
		fmt.Fprintln(w, "latency: no samples")
		return
	}

	sorted := make([]float64, len(ms))
	copy(sorted, ms)
	sort.Float64s(sorted)
	fmt.Fprintf(w, "latency (ms): min %.2f, median %.2f, p95 %.2f, max %.2f\n",
		sorted[0], percentile(sorted, 50), percentile(sorted, 95), sorted[len(sorted)-1])

	hist := histogram.Hist(histogramBins, ms)
	if err := histogram.Fprint(w, hist, histogram.Linear(histogramWidth)); err != nil {
		fmt.Fprintf(w, "latency: %v\n", err)
	}
}

// percentile picks from an ascending slice by nearest rank.
func percentile(sorted []float64, p int) float64 {
	i := (len(sorted)*p + 99) / 100
	if i < 1 {
		i = 1
	}
	return sorted[i-1]
}
