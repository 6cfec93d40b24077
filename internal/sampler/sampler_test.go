package sampler

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func seededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func TestEvenPolicyScenario(t *testing.T) {
	req := Request{Duration: 300, Count: 4, Policy: PolicyEven, ExclusionMargin: 60}
	stamps, err := Sample(req, nil)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	want := []float64{96, 132, 168, 204}
	if len(stamps) != len(want) {
		t.Fatalf("expected %d timestamps, got %d", len(want), len(stamps))
	}
	for i, ts := range stamps {
		if math.Abs(ts-want[i]) > 1e-9 {
			t.Fatalf("timestamp %d: expected %.3f, got %.3f", i, want[i], ts)
		}
	}
}

func TestEvenPolicyStrictlyIncreasingWithinInterval(t *testing.T) {
	req := Request{Duration: 1234.5, Count: 17, Policy: PolicyEven, ExclusionMargin: 42}
	stamps, err := Sample(req, nil)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if len(stamps) != req.Count {
		t.Fatalf("expected %d timestamps, got %d", req.Count, len(stamps))
	}
	spacing := stamps[1] - stamps[0]
	for i, ts := range stamps {
		if ts <= req.ExclusionMargin || ts >= req.Duration-req.ExclusionMargin {
			t.Fatalf("timestamp %.3f escapes the usable interval", ts)
		}
		if i > 0 {
			if stamps[i] <= stamps[i-1] {
				t.Fatalf("timestamps not strictly increasing at index %d", i)
			}
			if math.Abs((stamps[i]-stamps[i-1])-spacing) > 1e-9 {
				t.Fatalf("uneven spacing at index %d", i)
			}
		}
	}
}

func TestRandomPolicyReproducibleWithSeed(t *testing.T) {
	req := Request{Duration: 600, Count: 20, Policy: PolicyRandom, ExclusionMargin: 30}
	first, err := Sample(req, seededRand(7))
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	second, err := Sample(req, seededRand(7))
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if len(first) != req.Count {
		t.Fatalf("expected %d timestamps, got %d", req.Count, len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("seeded draws diverge at index %d: %.6f vs %.6f", i, first[i], second[i])
		}
		if first[i] < req.ExclusionMargin || first[i] > req.Duration-req.ExclusionMargin {
			t.Fatalf("timestamp %.3f escapes the usable interval", first[i])
		}
	}
}

func TestCombinedPolicySeparation(t *testing.T) {
	req := Request{Duration: 900, Count: 30, Policy: PolicyCombined, ExclusionMargin: 60}
	for seed := uint64(1); seed <= 25; seed++ {
		stamps, err := Sample(req, seededRand(seed))
		if err != nil {
			t.Fatalf("seed %d: sample: %v", seed, err)
		}
		for i := 1; i < len(stamps); i++ {
			if stamps[i]-stamps[i-1] < Epsilon {
				t.Fatalf("seed %d: timestamps %.4f and %.4f closer than epsilon", seed, stamps[i-1], stamps[i])
			}
		}
	}
}

func TestZeroWidthUsableIntervalFails(t *testing.T) {
	for _, policy := range []Policy{PolicyEven, PolicyRandom, PolicyCombined} {
		req := Request{Duration: 120, Count: 3, Policy: policy, ExclusionMargin: 60}
		if _, err := Sample(req, nil); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("policy %s: expected ErrInvalidRequest, got %v", policy, err)
		}
	}
}

func TestInvalidRequests(t *testing.T) {
	cases := []Request{
		{Duration: 300, Count: 0, Policy: PolicyEven, ExclusionMargin: 10},
		{Duration: 0, Count: 5, Policy: PolicyRandom, ExclusionMargin: 0},
		{Duration: 300, Count: 5, Policy: PolicyEven, ExclusionMargin: -1},
		{Duration: 300, Count: 5, Policy: Policy(9), ExclusionMargin: 0},
	}
	for i, req := range cases {
		if _, err := Sample(req, nil); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("case %d: expected ErrInvalidRequest, got %v", i, err)
		}
	}
}

func TestParsePolicy(t *testing.T) {
	for name, want := range map[string]Policy{"even": PolicyEven, "random": PolicyRandom, "combined": PolicyCombined} {
		got, err := ParsePolicy(name)
		if err != nil {
			t.Fatalf("parse %q: %v", name, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %v, got %v", name, want, got)
		}
	}
	if _, err := ParsePolicy("sideways"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for unknown policy, got %v", err)
	}
}
