// Package splitsio models the splits.io v4 API: typed entities, the
// collection query façade, and duration derivation over loaded runs.
package splitsio

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/splitsio/go-splitsio/pkg/client"
	"github.com/splitsio/go-splitsio/pkg/paginate"
)

// Resource is implemented by every splits.io entity type. collection
// is the plural JSON key its listings arrive under; item is the key
// of a single-entity response.
type Resource interface {
	collection() string
	item() string
}

// Category is a ruleset for a Game (Any%, 100%, MST, ...) and an
// optional container for Runs. Its canonical ID string is a base 10
// number, e.g. "312", "1456", "11".
type Category struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func (Category) collection() string { return "categories" }
func (Category) item() string       { return "category" }

// CanonicalID returns the ID string used to query category endpoints.
func (c Category) CanonicalID() string { return c.ID }

// Runs lists the category's runs.
func (c Category) Runs(ctx context.Context, cl *client.Client) (paginate.Sequence[Run], error) {
	return Query[Run](ctx, cl, associationEndpoint(c, "runs"))
}

// Runners lists runners with at least one run in the category.
func (c Category) Runners(ctx context.Context, cl *client.Client) (paginate.Sequence[Runner], error) {
	return Query[Runner](ctx, cl, associationEndpoint(c, "runners"))
}

// Game is a collection of information about a game, and a container
// for Categories. Its canonical ID string is its Speedrun.com
// shortname, e.g. "sms", "sm64", "portal".
type Game struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Shortname  *string    `json:"shortname"`
	CreatedAt  *time.Time `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
	Categories []Category `json:"categories"`
}

func (Game) collection() string { return "games" }
func (Game) item() string       { return "game" }

// CanonicalID returns the shortname when present, else the name.
func (g Game) CanonicalID() string {
	if g.Shortname != nil {
		return *g.Shortname
	}
	return g.Name
}

// Runs lists the game's runs.
func (g Game) Runs(ctx context.Context, cl *client.Client) (paginate.Sequence[Run], error) {
	return Query[Run](ctx, cl, associationEndpoint(g, "runs"))
}

// Runners lists the game's runners.
func (g Game) Runners(ctx context.Context, cl *client.Client) (paginate.Sequence[Runner], error) {
	return Query[Runner](ctx, cl, associationEndpoint(g, "runners"))
}

// CategoryCount pairs a category with its number of runs.
type CategoryCount struct {
	Category Category
	NumRuns  int
}

// CategoryCounts returns the game's categories with run counts, sorted
// by decreasing number of runs. Returns empty when the game payload
// carried no categories.
func (g Game) CategoryCounts(ctx context.Context, cl *client.Client) ([]CategoryCount, error) {
	if len(g.Categories) == 0 {
		return nil, nil
	}

	seq, err := g.Runs(ctx, cl)
	if err != nil {
		return nil, err
	}
	runs, err := paginate.All(ctx, seq)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, run := range runs {
		if run.Category != nil {
			counts[run.Category.ID]++
		}
	}

	items := make([]CategoryCount, 0, len(g.Categories))
	for _, cat := range g.Categories {
		items = append(items, CategoryCount{Category: cat, NumRuns: counts[cat.ID]})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].NumRuns > items[j].NumRuns
	})
	return items, nil
}

// Runner is a user with at least one run tied to their account. Its
// canonical ID string is their splits.io username all-lowercased,
// e.g. "glacials", "batedurgonnadie", "snarfybobo".
type Runner struct {
	ID          string     `json:"id"`
	TwitchID    *string    `json:"twitch_id"`
	TwitchName  *string    `json:"twitch_name"`
	DisplayName string     `json:"display_name"`
	Name        string     `json:"name"`
	Avatar      string     `json:"avatar"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

func (Runner) collection() string { return "runners" }
func (Runner) item() string       { return "runner" }

// CanonicalID returns the lowercased username.
func (r Runner) CanonicalID() string { return strings.ToLower(r.Name) }

// Runs lists the runner's runs.
func (r Runner) Runs(ctx context.Context, cl *client.Client) (paginate.Sequence[Run], error) {
	return Query[Run](ctx, cl, associationEndpoint(r, "runs"))
}

// PBs lists the runner's personal best runs. The response nests the
// runs under "pbs" rather than the Run collection key.
func (r Runner) PBs(ctx context.Context, cl *client.Client) (paginate.Sequence[Run], error) {
	return QueryKey[Run](ctx, cl, associationEndpoint(r, "pbs"), "pbs")
}

// Games lists games for which the runner has at least one speedrun.
func (r Runner) Games(ctx context.Context, cl *client.Client) (paginate.Sequence[Game], error) {
	return Query[Game](ctx, cl, associationEndpoint(r, "games"))
}

// Categories lists categories the runner has participated in.
func (r Runner) Categories(ctx context.Context, cl *client.Client) (paginate.Sequence[Category], error) {
	return Query[Category](ctx, cl, associationEndpoint(r, "categories"))
}

// History is one attempt's record at one segment or, at the run level,
// one attempt's overall record. AttemptNumber is the only stable join
// key across segment and run-level history lists; it need not be
// contiguous or zero-based. Nil duration fields mean the timed
// quantity was not recorded at this point.
type History struct {
	AttemptNumber      int        `json:"attempt_number"`
	RealtimeDurationMS *int64     `json:"realtime_duration_ms"`
	GametimeDurationMS *int64     `json:"gametime_duration_ms"`
	StartedAt          *time.Time `json:"started_at"`
	EndedAt            *time.Time `json:"ended_at"`
}

func (History) collection() string { return "histories" }
func (History) item() string       { return "history" }

// Segment maps to a single timed piece of a run, also called a split.
// Its canonical ID string is a UUID. SegmentNumber is the segment's
// fixed position within its run and defines matrix column order. The
// history list is populated independently per segment: entries from
// two segments correlate by AttemptNumber, never by list position.
type Segment struct {
	ID                         string    `json:"id"`
	Name                       string    `json:"name"`
	DisplayName                string    `json:"display_name"`
	SegmentNumber              int       `json:"segment_number"`
	RealtimeStartMS            int64     `json:"realtime_start_ms"`
	RealtimeDurationMS         int64     `json:"realtime_duration_ms"`
	RealtimeEndMS              int64     `json:"realtime_end_ms"`
	RealtimeShortestDurationMS *int64    `json:"realtime_shortest_duration_ms"`
	RealtimeGold               bool      `json:"realtime_gold"`
	RealtimeSkipped            bool      `json:"realtime_skipped"`
	RealtimeReduced            bool      `json:"realtime_reduced"`
	GametimeStartMS            int64     `json:"gametime_start_ms"`
	GametimeDurationMS         int64     `json:"gametime_duration_ms"`
	GametimeEndMS              int64     `json:"gametime_end_ms"`
	GametimeShortestDurationMS *int64    `json:"gametime_shortest_duration_ms"`
	GametimeGold               bool      `json:"gametime_gold"`
	GametimeSkipped            bool      `json:"gametime_skipped"`
	GametimeReduced            bool      `json:"gametime_reduced"`
	Histories                  []History `json:"histories"`
}

func (Segment) collection() string { return "segments" }
func (Segment) item() string       { return "segment" }

// CanonicalID returns the segment's UUID.
func (s Segment) CanonicalID() string { return s.ID }

// Run maps 1:1 to an uploaded splits file. Its canonical ID string is
// a base 36 number, e.g. "1b", "3nm", "1vr". Segment and history data
// beyond the summary fields is only present when fetched with
// historic=1 (see RunByID).
type Run struct {
	ID                  string     `json:"id"`
	SRDCID              *string    `json:"srdc_id"`
	RealtimeDurationMS  int64      `json:"realtime_duration_ms"`
	RealtimeSumOfBestMS *int64     `json:"realtime_sum_of_best_ms"`
	GametimeDurationMS  int64      `json:"gametime_duration_ms"`
	GametimeSumOfBestMS *int64     `json:"gametime_sum_of_best_ms"`
	DefaultTiming       string     `json:"default_timing"`
	Program             string     `json:"program"`
	Attempts            *int       `json:"attempts"`
	ImageURL            *string    `json:"image_url"`
	ParsedAt            *time.Time `json:"parsed_at"`
	CreatedAt           *time.Time `json:"created_at"`
	UpdatedAt           *time.Time `json:"updated_at"`
	VideoURL            *string    `json:"video_url"`
	Game                *Game      `json:"game"`
	Category            *Category  `json:"category"`
	Runners             []Runner   `json:"runners"`
	Segments            []Segment  `json:"segments"`
	Histories           []History  `json:"histories"`
}

func (Run) collection() string { return "runs" }
func (Run) item() string       { return "run" }

// CanonicalID returns the run's base 36 ID.
func (r Run) CanonicalID() string { return r.ID }

// normalize sorts the run-level histories chronologically by attempt
// number. Performed exactly once, at load time; the run is immutable
// afterwards.
func (r *Run) normalize() {
	sort.SliceStable(r.Histories, func(i, j int) bool {
		return r.Histories[i].AttemptNumber < r.Histories[j].AttemptNumber
	})
}

// sortedSegments returns the run's segments in segment-number order.
func (r *Run) sortedSegments() []Segment {
	segs := make([]Segment, len(r.Segments))
	copy(segs, r.Segments)
	sort.SliceStable(segs, func(i, j int) bool {
		return segs[i].SegmentNumber < segs[j].SegmentNumber
	})
	return segs
}

// associationEndpoint builds "{collection}/{id}/{name}" for an
// association query on an entity with a canonical ID.
func associationEndpoint(r interface {
	Resource
	CanonicalID() string
}, name string) string {
	return r.collection() + "/" + url.PathEscape(r.CanonicalID()) + "/" + name
}
