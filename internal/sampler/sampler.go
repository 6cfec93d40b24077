package sampler

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
)

// Policy selects the timestamp distribution strategy.
type Policy int

const (
	// PolicyEven spaces timestamps equally across the usable interval.
	PolicyEven Policy = iota + 1
	// PolicyRandom draws timestamps uniformly from the usable interval.
	PolicyRandom
	// PolicyCombined blends evenly spaced and random timestamps.
	PolicyCombined
)

// Epsilon is the minimum separation between any two timestamps produced by
// the combined policy, in seconds.
const Epsilon = 0.5

// redrawLimit bounds rejection sampling for the combined policy. A draw that
// cannot clear Epsilon after this many attempts is dropped rather than
// violating the separation guarantee.
const redrawLimit = 64

// ErrInvalidRequest marks sampling requests that cannot yield timestamps.
var ErrInvalidRequest = errors.New("invalid sample request")

// ParsePolicy maps a CLI policy name to a Policy value.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "even":
		return PolicyEven, nil
	case "random":
		return PolicyRandom, nil
	case "combined":
		return PolicyCombined, nil
	default:
		return 0, fmt.Errorf("%w: unknown policy %q", ErrInvalidRequest, name)
	}
}

// String returns the CLI name of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyEven:
		return "even"
	case PolicyRandom:
		return "random"
	case PolicyCombined:
		return "combined"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Request describes a timestamp sampling job.
type Request struct {
	// Duration is the total media duration in seconds.
	Duration float64
	// Count is the number of timestamps to draw.
	Count int
	// Policy selects the distribution strategy.
	Policy Policy
	// ExclusionMargin trims this many seconds from both ends of the timeline.
	ExclusionMargin float64
}

// Validate reports whether the request can yield timestamps.
func (r Request) Validate() error {
	if r.Count <= 0 {
		return fmt.Errorf("%w: count %d must be positive", ErrInvalidRequest, r.Count)
	}
	if r.Duration <= 0 {
		return fmt.Errorf("%w: duration %.3fs must be positive", ErrInvalidRequest, r.Duration)
	}
	if r.ExclusionMargin < 0 {
		return fmt.Errorf("%w: exclusion margin %.3fs must not be negative", ErrInvalidRequest, r.ExclusionMargin)
	}
	if 2*r.ExclusionMargin >= r.Duration {
		return fmt.Errorf("%w: usable interval is empty (duration %.3fs, margin %.3fs)", ErrInvalidRequest, r.Duration, r.ExclusionMargin)
	}
	switch r.Policy {
	case PolicyEven, PolicyRandom, PolicyCombined:
		return nil
	default:
		return fmt.Errorf("%w: unknown policy %d", ErrInvalidRequest, int(r.Policy))
	}
}

// Sample produces timestamps for the request, sorted ascending. All values
// lie within [ExclusionMargin, Duration-ExclusionMargin]. rng may be nil, in
// which case a fresh non-deterministic source is used; tests pass a seeded
// source for reproducibility.
func Sample(req Request, rng *rand.Rand) ([]float64, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	start := req.ExclusionMargin
	end := req.Duration - req.ExclusionMargin

	switch req.Policy {
	case PolicyEven:
		return evenTimestamps(start, end, req.Count), nil
	case PolicyRandom:
		stamps := randomTimestamps(start, end, req.Count, rng)
		sort.Float64s(stamps)
		return stamps, nil
	default:
		return combinedTimestamps(start, end, req.Count, rng), nil
	}
}

// evenTimestamps emits the count interior boundary points of count+1 equal
// segments over [start, end].
func evenTimestamps(start, end float64, count int) []float64 {
	interval := (end - start) / float64(count+1)
	stamps := make([]float64, 0, count)
	for i := 1; i <= count; i++ {
		stamps = append(stamps, start+float64(i)*interval)
	}
	return stamps
}

func randomTimestamps(start, end float64, count int, rng *rand.Rand) []float64 {
	stamps := make([]float64, 0, count)
	for i := 0; i < count; i++ {
		stamps = append(stamps, start+rng.Float64()*(end-start))
	}
	return stamps
}

// combinedTimestamps allocates half the count to the even policy and draws
// the remainder uniformly, redrawing any sample that lands within Epsilon of
// an already-selected timestamp.
func combinedTimestamps(start, end float64, count int, rng *rand.Rand) []float64 {
	evenCount := count / 2
	stamps := evenTimestamps(start, end, evenCount)
	for remaining := count - evenCount; remaining > 0; remaining-- {
		for attempt := 0; attempt < redrawLimit; attempt++ {
			candidate := start + rng.Float64()*(end-start)
			if separated(stamps, candidate) {
				stamps = append(stamps, candidate)
				break
			}
		}
	}
	sort.Float64s(stamps)
	return stamps
}

func separated(stamps []float64, candidate float64) bool {
	for _, ts := range stamps {
		diff := ts - candidate
		if diff < 0 {
			diff = -diff
		}
		if diff < Epsilon {
			return false
		}
	}
	return true
}
