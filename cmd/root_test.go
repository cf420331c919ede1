package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ridedispatch/console"
	"github.com/kilianp07/ridedispatch/simulator"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestRootRunsConsoleSession(t *testing.T) {
	input := "2\n1 Alice 0 0\n2 Bob 5 5\n2\n100 1 1 3 3\n101 4 4 0 0\n"
	out, _, err := execute(t, input)
	require.NoError(t, err)
	assert.Contains(t, out, "Ride request 100 assigned to vehicle 1 (driver Alice) from (1, 1) to (3, 3)\n")
	assert.Contains(t, out, "Ride request 101 assigned to vehicle 2 (driver Bob) from (4, 4) to (0, 0)\n")
}

func TestRootMalformedInput(t *testing.T) {
	_, _, err := execute(t, "1\n1 Alice zero 0\n")
	require.ErrorIs(t, err, console.ErrInput)
}

func TestRootVerboseLogsToStderr(t *testing.T) {
	_, errOut, err := execute(t, "1\n1 Alice 0 0\n1\n5 0 0 1 1\n", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, errOut, "request 5 assigned to vehicle 1")
}

func TestRootConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dispatch:\n  defer_unmatched: true\ntriplog:\n  backend: none\n"), 0o644))
	out, _, err := execute(t, "0\n1\n7 0 0 1 1\n", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Ride request 7 queued until a vehicle becomes available")
}

func TestRootBadConfig(t *testing.T) {
	_, _, err := execute(t, "", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestSimulateCommand(t *testing.T) {
	out, _, err := execute(t, "", "simulate", "--vehicles", "3", "--requests", "12", "--grid", "10", "--seed", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "requests: 12\n")
	assert.Contains(t, out, "assigned: 12\n")
	assert.Contains(t, out, "pickup distance: mean ")
}

func TestSimulateRejectsBadGrid(t *testing.T) {
	_, _, err := execute(t, "", "simulate", "--grid", "0")
	require.Error(t, err)
}

func TestTripsExportAfterConsole(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := "triplog:\n  backend: jsonl\n  path: " + filepath.Join(dir, "trips.jsonl") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))

	_, _, err := execute(t, "1\n1 Alice 0 0\n2\n10 1 0 2 0\n11 0 0 5 5\n", "-c", path)
	require.NoError(t, err)

	out, _, err := execute(t, "", "trips", "-c", path, "--format", "csv", "--vehicle", "1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "timestamp,request_id,status"))
	assert.Contains(t, lines[1], ",10,assigned,")
	assert.Contains(t, lines[2], ",11,assigned,")

	_, _, err = execute(t, "", "trips", "-c", path, "--status", "lost")
	require.Error(t, err)
}

func TestSimulateScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	sc := "vehicles:\n  - {id: 1, driver: Alice, x: 0, y: 0}\nrequests:\n  - {id: 3, pickup: {x: 1, y: 1}, destination: {x: 2, y: 2}}\nexpected:\n  assigned: 1\n"
	require.NoError(t, os.WriteFile(path, []byte(sc), 0o644))

	out, _, err := execute(t, "", "simulate", "--scenario", path)
	require.NoError(t, err)
	assert.Contains(t, out, "assigned: 1\n")
	assert.Contains(t, out, "vehicle 1: 1 trips\n")

	require.NoError(t, os.WriteFile(path, []byte(sc+"  unmatched: 4\n"), 0o644))
	_, _, err = execute(t, "", "simulate", "--scenario", path)
	assert.ErrorIs(t, err, simulator.ErrExpectation)
}

func TestTripsRejectsNonPersistentBackend(t *testing.T) {
	_, _, err := execute(t, "1\n1 Alice 0 0\n1\n1 0 0 1 1\n")
	require.NoError(t, err)

	out, _, err := execute(t, "", "trips")
	require.ErrorIs(t, err, errTripLogNotPersistent)
	assert.Contains(t, err.Error(), `"memory"`)
	assert.Empty(t, out)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("triplog:\n  backend: none\n"), 0o644))
	_, _, err = execute(t, "", "trips", "-c", path)
	assert.ErrorIs(t, err, errTripLogNotPersistent)
}
