package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colpir/pkg/ingest"
	"github.com/ajitpratap0/colpir/pkg/json"
	"github.com/ajitpratap0/colpir/pkg/pirerrors"
	"github.com/ajitpratap0/colpir/pkg/testutil"
)

// execute runs the CLI in an isolated directory without config files.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func fastRun(args ...string) []string {
	return append([]string{"run", "--lwe-dim", "64", "--seed", "7", "--log-level", "error"}, args...)
}

func TestExitCode(t *testing.T) {
	verification := pirerrors.New(pirerrors.ErrorTypeVerification, "rejected")
	mismatch := pirerrors.New(pirerrors.ErrorTypeMismatch, "differs")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"untyped", errors.New("boom"), 1},
		{"internal", pirerrors.New(pirerrors.ErrorTypeInternal, "x"), 1},
		{"input", pirerrors.New(pirerrors.ErrorTypeInput, "x"), 2},
		{"validation", pirerrors.New(pirerrors.ErrorTypeValidation, "x"), 3},
		{"structural", pirerrors.New(pirerrors.ErrorTypeStructural, "x"), 4},
		{"protocol", pirerrors.New(pirerrors.ErrorTypeProtocol, "x"), 5},
		{"verification", verification, 6},
		{"mismatch", mismatch, 7},
		{"config", pirerrors.New(pirerrors.ErrorTypeConfig, "x"), 8},
		{"wrapped", fmt.Errorf("run: %w", pirerrors.New(pirerrors.ErrorTypeInput, "x")), 2},
		{"joined", errors.Join(mismatch, verification), 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestRun_JSONReport(t *testing.T) {
	path := testutil.WriteFile(t, "data.csv", testutil.CSV("value", "0", "42", "100", "255"))

	out, err := execute(t, fastRun(path, "--bits", "8", "--index", "3", "--output", "json")...)
	require.NoError(t, err)

	var rep runReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "data.csv", rep.Source.Path)
	assert.Equal(t, "csv", rep.Source.Format)
	assert.Equal(t, uint64(4), rep.Source.Rows)
	require.NotNil(t, rep.Result)
	assert.Equal(t, uint64(255), rep.Result.Recovered)
	assert.True(t, rep.Result.Match)
	require.NotNil(t, rep.Load)
	assert.Equal(t, uint64(4), rep.Load.Consumed)
	assert.Positive(t, rep.Telemetry.Sizes.Hint)
}

func TestRun_TextReport(t *testing.T) {
	path := testutil.WriteFile(t, "data.csv", testutil.CSV("value", "0", "42", "100", "255"))

	out, err := execute(t, fastRun(path, "--index", "1", "--prove", "--repeat", "2")...)
	require.NoError(t, err)

	assert.Contains(t, out, "index 1: recovered 42 PASS (expected 42)")
	assert.Contains(t, out, "proof verified")
	assert.Contains(t, out, "hint")
	assert.Contains(t, out, "answer (x2)")
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		args []string
		want int
	}{
		{"scenario B", testutil.CSV("value", "1", "abc", "2"), []string{"--bits", "2"}, 3},
		{"out of range", testutil.CSV("value", "5"), []string{"--bits", "2"}, 3},
		{"index N", testutil.CSV("value", "1", "2"), []string{"--index", "2"}, 5},
		{"empty", testutil.CSV("value"), nil, 4},
		{"prove with fake hint", testutil.CSV("value", "1"), []string{"--prove", "--fake-hint"}, 8},
		{"bits too large", testutil.CSV("value", "1"), []string{"--bits", "65"}, 8},
		{"output", testutil.CSV("value", "1"), []string{"--output", "xml"}, 8},
		{"unknown flag", testutil.CSV("value", "1"), []string{"--nope"}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.WriteFile(t, "data.csv", tt.csv)
			_, err := execute(t, fastRun(append([]string{path}, tt.args...)...)...)
			require.Error(t, err)
			assert.Equal(t, tt.want, exitCode(err), err.Error())
		})
	}
}

func TestRun_SourceErrors(t *testing.T) {
	_, err := execute(t, fastRun(filepath.Join(t.TempDir(), "missing.csv"))...)
	assert.Equal(t, 2, exitCode(err))

	_, err = execute(t, fastRun("data.txt")...)
	assert.Equal(t, 2, exitCode(err))

	_, err = execute(t, fastRun()...)
	assert.Equal(t, 8, exitCode(err))

	_, err = execute(t, fastRun("data.csv", "--synthetic", "4")...)
	assert.Equal(t, 8, exitCode(err))
}

func TestRun_Synthetic(t *testing.T) {
	out, err := execute(t, fastRun("--synthetic", "100", "--bits", "20", "--index", "99")...)
	require.NoError(t, err)
	assert.Contains(t, out, "synthetic")
	assert.Contains(t, out, "PASS")
}

func TestRun_FakeHint(t *testing.T) {
	out, err := execute(t, fastRun("--synthetic", "16", "--fake-hint")...)
	require.NoError(t, err)
	assert.Contains(t, out, "UNCHECKED")
}

func TestRun_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(data, []byte(testutil.CSV("7", "8", "9")), 0o600))
	cfgPath := filepath.Join(dir, "colpir.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
source:
  path: %s
  has_header: false
protocol:
  bit_width: 4
  lwe_dimension: 64
  seed: 3
`, data)), 0o600))

	out, err := execute(t, "run", "--config", cfgPath, "--index", "2", "--output", "json", "--log-level", "error")
	require.NoError(t, err)

	var rep runReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, uint64(3), rep.Source.Rows)
	assert.Equal(t, uint(4), rep.Source.BitWidth)
	assert.Equal(t, uint64(9), rep.Result.Recovered)
}

func TestRun_MetricsFile(t *testing.T) {
	prom := filepath.Join(t.TempDir(), "colpir.prom")
	_, err := execute(t, fastRun("--synthetic", "8", "--metrics-file", prom)...)
	require.NoError(t, err)

	data, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(data), "colpir_session_outcomes_total")
}

func TestRun_Profiles(t *testing.T) {
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.prof")
	mem := filepath.Join(dir, "mem.prof")

	_, err := execute(t, fastRun("--synthetic", "64", "--cpuprofile", cpu, "--memprofile", mem)...)
	require.NoError(t, err)
	assert.FileExists(t, cpu)
	assert.FileExists(t, mem)
}

func TestGenerateAndStats(t *testing.T) {
	for _, name := range []string{"gen.csv", "gen.csv.zst", "gen.parquet"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			_, err := execute(t, "generate", path, "--rows", "50", "--bits", "6", "--seed", "9")
			require.NoError(t, err)

			out, err := execute(t, "stats", path, "--bits", "6", "--output", "json")
			require.NoError(t, err)

			var stats ingest.Stats
			require.NoError(t, json.Unmarshal([]byte(out), &stats))
			assert.Equal(t, uint64(50), stats.Rows)
			assert.Equal(t, uint64(50), stats.Present)
			assert.LessOrEqual(t, stats.Max, uint64(63))

			out, err = execute(t, fastRun(path, "--bits", "6", "--index", "49")...)
			require.NoError(t, err)
			assert.Contains(t, out, "PASS")
		})
	}
}

func TestGenerate_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "generate", filepath.Join(dir, "x.json"))
	assert.Equal(t, 2, exitCode(err))

	_, err = execute(t, "generate", filepath.Join(dir, "x.parquet"), "--signed", "--bits", "64")
	assert.Equal(t, 8, exitCode(err))

	_, err = execute(t, "generate", filepath.Join(dir, "x.csv"), "--rows", "0")
	assert.Equal(t, 8, exitCode(err))
}

func TestStats_Text(t *testing.T) {
	path := testutil.WriteFile(t, "data.csv", testutil.CSV("value", "3", "300", "x"))

	out, err := execute(t, "stats", path, "--bits", "8")
	require.NoError(t, err)
	assert.Contains(t, out, "values exceed 8 bits, use --bits 9")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colpir.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")

	_, err = execute(t, "config", "init", path)
	assert.Equal(t, 8, exitCode(err))

	_, err = execute(t, "config", "init", path, "--force")
	require.NoError(t, err)

	out, err = execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "bit_width: 8")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "colpir v"+version)
}
