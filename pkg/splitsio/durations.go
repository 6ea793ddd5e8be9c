package splitsio

import (
	"errors"
	"math"
)

// ErrHistoriesNotLoaded is returned by duration derivation when the
// run's histories are absent (run fetched without historic=1).
var ErrHistoriesNotLoaded = errors.New("run histories not loaded (fetch with historic)")

// Column names appended to split-duration tables.
const (
	// TotalColumn duplicates the last cumulative column: elapsed time
	// at the final recorded split.
	TotalColumn = "total"

	// TrueTotalColumn is the independently recorded run-level duration
	// for the attempt, not derived from segments. Comparing it with
	// TotalColumn exposes drift between segment sums and the
	// authoritative total.
	TrueTotalColumn = "true_total"
)

// DurationMS resolves the history's duration in milliseconds by fixed
// priority: stored realtime, stored gametime, then the whole-second
// difference of its timestamps. ok is false when none applies.
func (h History) DurationMS() (ms int64, ok bool) {
	if h.RealtimeDurationMS != nil {
		return *h.RealtimeDurationMS, true
	}
	if h.GametimeDurationMS != nil {
		return *h.GametimeDurationMS, true
	}
	if h.StartedAt != nil && h.EndedAt != nil {
		secs := int64(h.EndedAt.Sub(*h.StartedAt).Seconds())
		return secs * 1000, true
	}
	return 0, false
}

// IsComplete reports whether the attempt carries a stored realtime or
// gametime duration. Note this is a different completeness test than
// "reached the last segment" (CompletedAttempts); the API can flag an
// attempt complete on the run while the last segment has no entry for
// it, and vice versa.
func (h History) IsComplete() bool {
	return h.RealtimeDurationMS != nil || h.GametimeDurationMS != nil
}

// CompletedAttempts returns the run-level histories of attempts that
// reached the run's final segment. The last segment's history set is,
// by construction, exactly the set of attempts that finished. A run
// with no segments, or whose histories are not loaded, yields an empty
// result rather than an error (unlike the duration matrices).
func (r *Run) CompletedAttempts() []History {
	if len(r.Histories) == 0 || len(r.Segments) == 0 {
		return nil
	}

	segs := r.sortedSegments()
	last := segs[len(segs)-1]

	finished := make(map[int]struct{}, len(last.Histories))
	for _, h := range last.Histories {
		finished[h.AttemptNumber] = struct{}{}
	}

	var completed []History
	for _, h := range r.Histories {
		if _, ok := finished[h.AttemptNumber]; ok {
			completed = append(completed, h)
		}
	}
	return completed
}

// SegmentDurations derives the attempt × segment duration matrix, in
// seconds.
//
// Rows are attempt numbers from the run-level histories: all of them,
// or only those with a stored duration when complete is set. Cells are
// each segment's resolved duration for that attempt; a cell stays
// missing when the segment has no history entry for the attempt or the
// entry's duration is unresolvable. Rows with no recorded segment at
// all are dropped regardless of clean.
//
// With clean set, a literal zero duration is treated as a "not
// actually run" sentinel and converted to missing, then every row
// still containing a missing cell is dropped: only fully-populated
// attempts survive. Without clean, remaining missing cells are filled
// with zero (the usual skipped-split convention).
func (r *Run) SegmentDurations(complete, clean bool) (*Table, error) {
	if r.Histories == nil {
		return nil, ErrHistoriesNotLoaded
	}

	segs := r.sortedSegments()

	// Row set, in run-level history order.
	attempts := make([]int, 0, len(r.Histories))
	rowIndex := make(map[int]int, len(r.Histories))
	for _, h := range r.Histories {
		if complete && !h.IsComplete() {
			continue
		}
		if _, dup := rowIndex[h.AttemptNumber]; dup {
			continue
		}
		rowIndex[h.AttemptNumber] = len(attempts)
		attempts = append(attempts, h.AttemptNumber)
	}

	missing := math.NaN()
	values := make([][]float64, len(attempts))
	for i := range values {
		row := make([]float64, len(segs))
		for j := range row {
			row[j] = missing
		}
		values[i] = row
	}

	columns := make([]string, len(segs))
	for j, seg := range segs {
		columns[j] = seg.Name
		for _, h := range seg.Histories {
			i, ok := rowIndex[h.AttemptNumber]
			if !ok {
				continue
			}
			if ms, ok := h.DurationMS(); ok {
				values[i][j] = float64(ms) / 1000
			}
		}
	}

	table := &Table{Columns: columns}
	for i, attempt := range attempts {
		row := values[i]

		empty := true
		for _, v := range row {
			if !IsMissing(v) {
				empty = false
				break
			}
		}
		if empty {
			continue
		}

		if clean {
			keep := true
			for j, v := range row {
				if v == 0 {
					row[j] = missing
				}
				if IsMissing(row[j]) {
					keep = false
				}
			}
			if !keep {
				continue
			}
		} else {
			for j, v := range row {
				if IsMissing(v) {
					row[j] = 0
				}
			}
		}

		table.Attempts = append(table.Attempts, attempt)
		table.Values = append(table.Values, row)
	}
	return table, nil
}

// SplitDurations derives per-split elapsed times: the cumulative sum
// of SegmentDurations across columns in segment order, with two extra
// columns, total (elapsed time at the final recorded split) and
// true_total (the independently recorded run-level duration, NaN when
// unresolvable).
func (r *Run) SplitDurations(complete, clean bool) (*Table, error) {
	segTable, err := r.SegmentDurations(complete, clean)
	if err != nil {
		return nil, err
	}

	byAttempt := make(map[int]History, len(r.Histories))
	for _, h := range r.Histories {
		if _, dup := byAttempt[h.AttemptNumber]; !dup {
			byAttempt[h.AttemptNumber] = h
		}
	}

	cum := segTable.cumsum()
	out := &Table{
		Attempts: cum.Attempts,
		Columns:  append(append([]string{}, cum.Columns...), TotalColumn, TrueTotalColumn),
		Values:   make([][]float64, len(cum.Values)),
	}
	for i, row := range cum.Values {
		var total float64
		if len(row) > 0 {
			total = row[len(row)-1]
		}

		trueTotal := math.NaN()
		if h, ok := byAttempt[cum.Attempts[i]]; ok {
			if ms, ok := h.DurationMS(); ok {
				trueTotal = float64(ms) / 1000
			}
		}

		out.Values[i] = append(append([]float64{}, row...), total, trueTotal)
	}
	return out, nil
}
