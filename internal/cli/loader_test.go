package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbartley/sequent/internal/model"
)

const validPlanCUE = `
package plan

plan: {
	project: "crm-rollout"

	phases: [
		{ id: "p1", name: "Foundation", rank: 1 },
		{ id: "p2", name: "Build-out", rank: 2 },
	]

	components: [
		{ id: "accounts", kind: "table", name: "Accounts", phase: "p1", weight: 3 },
		{ id: "browse", kind: "screen", name: "Browse Accounts", phase: "p2" },
		{ id: "notify", kind: "flow", name: "Notify Owner" },
	]

	dependencies: [
		{ from: "accounts", to: "browse", kind: "data" },
		{ from: "browse", to: "notify", kind: "trigger" },
	]
}
`

const cyclicPlanCUE = `
package plan

plan: {
	project: "tangled"
	components: [
		{ id: "a", kind: "table" },
		{ id: "b", kind: "screen" },
		{ id: "c", kind: "flow" },
	]
	dependencies: [
		{ from: "a", to: "b" },
		{ from: "b", to: "c" },
		{ from: "c", to: "a" },
	]
}
`

// writePlanDir writes a CUE plan source into a fresh directory.
func writePlanDir(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plan.cue"), []byte(src), 0644))
	return dir
}

func TestLoadPlanValid(t *testing.T) {
	dir := writePlanDir(t, validPlanCUE)

	result, err := LoadPlan(dir)
	require.NoError(t, err)
	require.NotNil(t, result.Plan)

	assert.Equal(t, 1, result.FileCount)
	assert.Equal(t, model.ProjectID("crm-rollout"), result.Plan.Project)
	assert.Len(t, result.Plan.Components, 3)
	assert.Len(t, result.Plan.Dependencies, 2)
	assert.Len(t, result.Plan.Phases, 2)
}

func TestLoadPlanNotFound(t *testing.T) {
	_, err := LoadPlan("/nonexistent/directory/path")
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}

func TestLoadPlanEmptyDir(t *testing.T) {
	_, err := LoadPlan(t.TempDir())
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeNoFiles, loadErr.Code)
}

func TestLoadPlanNoPlanStruct(t *testing.T) {
	dir := writePlanDir(t, `
package plan

other: { foo: "bar" }
`)

	_, err := LoadPlan(dir)
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeNoPlan, loadErr.Code)
}

func TestLoadPlanCompileError(t *testing.T) {
	dir := writePlanDir(t, `
package plan

plan: {
	project: "p"
	components: [{ id: "a", kind: "table", weight: 2.5 }]
}
`)

	_, err := LoadPlan(dir)
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeCompileFailed, loadErr.Code)
	assert.Contains(t, loadErr.Message, "integer")
}

func TestFindCUEFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.cue"), []byte("package plan\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("not cue"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.cue"), []byte("package plan\n"), 0644))

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
