package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runOrderCmd(t *testing.T, format string, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format}
	cmd := NewOrderCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestOrderValidPlan(t *testing.T) {
	dir := writePlanDir(t, validPlanCUE)

	buf, err := runOrderCmd(t, "text", dir)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Project: crm-rollout")
	assert.Contains(t, out, "1. accounts (table) [p1]")
	assert.Contains(t, out, "2. browse (screen) [p2]")
	assert.Contains(t, out, "3. notify (flow)")
	// accounts weighs 3, browse and notify 1 each
	assert.Contains(t, out, "Critical path (length 5)")
	assert.Contains(t, out, "accounts -> browse -> notify")
}

func TestOrderJSON(t *testing.T) {
	dir := writePlanDir(t, validPlanCUE)

	buf, err := runOrderCmd(t, "json", dir)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   OrderResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))

	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []string{"accounts", "browse", "notify"}, resp.Data.Order)
	assert.Equal(t, []string{"accounts", "browse", "notify"}, resp.Data.CriticalPath)
	assert.Equal(t, int64(5), resp.Data.CriticalLength)

	require.Len(t, resp.Data.Positions, 3)
	first := resp.Data.Positions[0]
	assert.Equal(t, "accounts", first.ID)
	assert.Equal(t, 0, first.TopoRank)
	assert.Equal(t, int64(3), first.Weight)
	assert.True(t, first.OnCriticalPath)
}

func TestOrderRejectsCyclicPlan(t *testing.T) {
	dir := writePlanDir(t, cyclicPlanCUE)

	buf, err := runOrderCmd(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "cycle")
}

func TestOrderNonExistentDirectory(t *testing.T) {
	_, err := runOrderCmd(t, "text", "/nonexistent/directory/path")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestOrderIndependentComponentsFollowCreation(t *testing.T) {
	dir := writePlanDir(t, `
package plan

plan: {
	project: "flat"
	components: [
		{ id: "zulu", kind: "table" },
		{ id: "alpha", kind: "screen" },
		{ id: "mike", kind: "flow" },
	]
}
`)

	buf, err := runOrderCmd(t, "json", dir)
	require.NoError(t, err)

	var resp struct {
		Data OrderResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	// No edges: order falls back to declaration (creation) order.
	assert.Equal(t, []string{"zulu", "alpha", "mike"}, resp.Data.Order)
}
