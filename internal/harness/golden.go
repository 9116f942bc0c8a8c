package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/nbartley/sequent/internal/model"
)

// RunWithGolden executes a scenario and compares the final snapshot
// against a golden file in testdata/golden/{scenario.Name}.golden.
//
// The comparison uses canonical JSON, so golden files are byte-stable:
// the same scenario always serializes identically. Version tokens are
// excluded from the canonical form, which keeps goldens independent of
// the version generator.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if !result.Pass {
		return result, fmt.Errorf("scenario %s failed: %v", scenario.Name, result.Errors)
	}

	data, err := model.MarshalCanonical(map[string]any{
		"scenario": scenario.Name,
		"snapshot": result.Snapshot.CanonicalMap(),
	})
	if err != nil {
		return result, fmt.Errorf("marshal snapshot: %w", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return result, nil
}
