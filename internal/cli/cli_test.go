package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/aretw0/gator"
	"github.com/aretw0/gator/pkg/config"
	"github.com/aretw0/gator/pkg/domain"
	"github.com/aretw0/gator/pkg/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chip = `# test chip
(0,0) name=bl, calibration_circuit=True
(0,10) name=tl, calibration_circuit=True
(10,10) name=tr, calibration_circuit=True
(5,5) name=ring1, type=ring, radius=10
(6,5) name=ring2, type=ring, radius=20
(7,5) name=mzi1, type=mzi
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestParsePairs(t *testing.T) {
	got, err := ParsePairs([]string{"type=ring", " radius = 10 ", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"type": "ring", "radius": "10", "empty": ""}, got)

	_, err = ParsePairs([]string{"type"})
	assert.Error(t, err)
	_, err = ParsePairs([]string{"=ring"})
	assert.Error(t, err)
}

func TestParseLocation(t *testing.T) {
	l, err := ParseLocation("1.5", "-2")
	require.NoError(t, err)
	assert.Equal(t, domain.Loc(1.5, -2), l)

	_, err = ParseLocation("x", "1")
	assert.Error(t, err)
}

func TestCRLF(t *testing.T) {
	var buf bytes.Buffer
	n, err := crlf{w: &buf}.Write([]byte("a\nb\n"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "a\r\nb\r\n", buf.String())
}

func TestListCircuits(t *testing.T) {
	path := writeFile(t, "chip.txt", chip)
	var out, errw bytes.Buffer

	err := ListCircuits(&out, &errw, path, FilterOptions{By: map[string]string{"type": "ring"}, Out: map[string]string{"radius": "10"}})
	require.NoError(t, err)
	assert.Equal(t, "(6,5) name=ring2, radius=20, type=ring\n", out.String())
	assert.Contains(t, errw.String(), "1 of 6 circuits")
}

func TestMergeCircuits(t *testing.T) {
	a := writeFile(t, "a.txt", "(0,0) name=a\n(1,1) name=b\n")
	b := writeFile(t, "b.txt", "(1,1) name=other\n(2,2) name=c\n")
	var out, errw bytes.Buffer

	require.NoError(t, MergeCircuits(&out, &errw, []string{a, b}))
	assert.Equal(t, "(0,0) name=a\n(1,1) name=b\n(2,2) name=c\n", out.String())
}

func TestStampCircuits(t *testing.T) {
	path := writeFile(t, "chip.txt", "(0,0) type=ring\n(1,0) type=mzi\n")
	var out, errw bytes.Buffer

	err := StampCircuits(&out, &errw, path, FilterOptions{By: map[string]string{"type": "ring"}},
		map[string]string{"wavelength": "1550"}, domain.Loc(100, 0))
	require.NoError(t, err)
	assert.Equal(t, "(100,0) type=ring, wavelength=1550\n(101,0) type=mzi\n", out.String())
	assert.Contains(t, errw.String(), "stamped 1 circuits")
}

func TestProfiles(t *testing.T) {
	ps := &config.Profiles{Dir: t.TempDir()}
	var out bytes.Buffer

	require.NoError(t, InitProfile(ps, &out, "bench", "", nil))
	require.NoError(t, InitProfile(ps, &out, "spare", "", nil))
	assert.Error(t, InitProfile(ps, &out, "bench", "", nil))

	require.NoError(t, ps.Calibrations().Save(context.Background(), "spare", domain.Identity()))

	out.Reset()
	require.NoError(t, ListProfiles(context.Background(), ps, &out))
	assert.Equal(t, "* bench\n  spare (calibrated)\n", out.String())
}

func openSim(t *testing.T) *Env {
	t.Helper()
	dir := t.TempDir()
	ps := &config.Profiles{Dir: dir}
	var out bytes.Buffer
	require.NoError(t, InitProfile(ps, &out, "bench", "", []domain.Location{domain.Loc(15.002, 25)}))

	env, err := Open(context.Background(), Options{ProfileDir: dir, Map: writeFile(t, "chip.txt", chip)},
		gator.WithSleep(scan.NoSleep))
	require.NoError(t, err)
	t.Cleanup(func() { env.Close() })
	return env
}

func TestOpen(t *testing.T) {
	env := openSim(t)
	assert.Equal(t, "bench", env.Session.Profile())
	assert.Equal(t, 6, env.Session.Circuits().Len())
	assert.False(t, env.Session.Transformer().Calibrated())

	_, err := Open(context.Background(), Options{ProfileDir: t.TempDir()})
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func calibrate(t *testing.T, env *Env) {
	t.Helper()
	_, err := env.Session.Calibrate(context.Background(), [3]domain.Location{
		domain.Loc(10, 20), domain.Loc(10, 30), domain.Loc(20, 30),
	})
	require.NoError(t, err)
}

func TestCalibrationSurvivesReopen(t *testing.T) {
	env := openSim(t)
	calibrate(t, env)

	again, err := Open(context.Background(), Options{ProfileDir: env.Profiles.Dir})
	require.NoError(t, err)
	defer again.Close()
	assert.True(t, again.Session.Transformer().Calibrated())
}

func TestRunBatch(t *testing.T) {
	env := openSim(t)
	var out bytes.Buffer

	err := RunBatch(context.Background(), env, &out, BatchOptions{Filter: FilterOptions{By: map[string]string{"type": "ring"}}})
	assert.ErrorIs(t, err, domain.ErrUncalibrated)

	calibrate(t, env)
	out.Reset()
	require.NoError(t, RunBatch(context.Background(), env, &out, BatchOptions{Filter: FilterOptions{By: map[string]string{"type": "ring"}}}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "NAME")
	assert.Contains(t, lines[2], "ring1")
	assert.Contains(t, lines[3], "ring2")

	err = RunBatch(context.Background(), env, &out, BatchOptions{Filter: FilterOptions{By: map[string]string{"type": "none"}}})
	assert.Error(t, err)
}

func TestRunScan(t *testing.T) {
	env := openSim(t)
	calibrate(t, env)
	var out bytes.Buffer

	at := domain.Loc(5, 5)
	require.NoError(t, RunScan(context.Background(), env, &out, ScanOptions{At: &at, Design: true, Box: true, Span: 0.01, Step: 0.002}))
	assert.Contains(t, out.String(), "Box scan: 36 samples")

	out.Reset()
	require.NoError(t, RunScan(context.Background(), env, &out, ScanOptions{At: &at, Design: true}))
	assert.Contains(t, out.String(), "Auto scan")
	assert.Contains(t, out.String(), "Design position")
}

func TestHandler(t *testing.T) {
	env := openSim(t)
	calibrate(t, env)
	at := domain.Loc(15, 25)
	var out bytes.Buffer
	require.NoError(t, RunScan(context.Background(), env, &out, ScanOptions{At: &at, Box: true, Span: 0.01, Step: 0.005}))

	h := Handler(env)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gator_scan_measurements_total")

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRunBatch_Exec(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	env := openSim(t)
	calibrate(t, env)

	path := filepath.Join(t.TempDir(), "probe.yaml")
	body := "run:\n  command: sh\n  args: [\"-c\", \"echo $GATOR_PARAM_NAME-$GATOR_X\"]\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	var out bytes.Buffer
	require.NoError(t, RunBatch(context.Background(), env, &out, BatchOptions{
		Filter: FilterOptions{By: map[string]string{"type": "ring"}},
		Exec:   path,
	}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "OUTPUT")
	assert.Contains(t, lines[2], "ring1-5")
}
