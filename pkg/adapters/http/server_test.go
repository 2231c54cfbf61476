package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/gator"
	gatorhttp "github.com/aretw0/gator/pkg/adapters/http"
	"github.com/aretw0/gator/pkg/adapters/memory"
	"github.com/aretw0/gator/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()
	flag := func(x, y float64) *domain.Circuit {
		return domain.NewCircuit(domain.Loc(x, y), domain.Params{domain.KeyCalibrationCircuit: domain.TrueValue})
	}
	cmap := domain.NewCircuitMap(
		flag(0, 0),
		domain.NewCircuit(domain.Loc(5, 5), domain.Params{"type": "ring", "radius": "10"}),
		domain.NewCircuit(domain.Loc(6, 5), domain.Params{"type": "ring", "radius": "20"}),
		domain.NewCircuit(domain.Loc(7, 5), domain.Params{"type": "mzi"}),
		flag(0, 10),
		flag(10, 10),
	)
	store := memory.NewStore()
	s, err := gator.New(gator.WithCircuitMap(cmap), gator.WithCalibrationStore(store), gator.WithProfile("bench"))
	require.NoError(t, err)
	return gatorhttp.NewHandler(s), store
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, &buf))
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), w.Body.String())
	return v
}

func TestListCircuits(t *testing.T) {
	h, _ := newServer(t)

	w := do(t, h, "GET", "/circuits", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]gatorhttp.Circuit](t, w), 6)

	w = do(t, h, "GET", "/circuits?by.type=ring", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]gatorhttp.Circuit](t, w), 2)

	w = do(t, h, "GET", "/circuits?by.type=ring&out.radius=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[[]gatorhttp.Circuit](t, w)
	require.Len(t, got, 1)
	assert.Equal(t, 6.0, got[0].X)

	// Circuits without the radius key are kept.
	w = do(t, h, "GET", "/circuits?out.radius=10", nil)
	assert.Len(t, decode[[]gatorhttp.Circuit](t, w), 5)

	w = do(t, h, "GET", "/circuits?type=ring", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCalibrationFlow(t *testing.T) {
	h, store := newServer(t)

	w := do(t, h, "POST", "/transform", gatorhttp.TransformRequest{Point: gatorhttp.Point{X: 5, Y: 5}})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, "GET", "/calibration", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[gatorhttp.CalibrationResponse](t, w).Calibrated)

	w = do(t, h, "GET", "/calibration/targets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	targets := decode[[]gatorhttp.Circuit](t, w)
	require.Len(t, targets, 3)

	observed := make([]gatorhttp.Point, len(targets))
	for i, c := range targets {
		observed[i] = gatorhttp.Point{X: c.X + 10, Y: c.Y + 20}
	}
	w = do(t, h, "PUT", "/calibration", gatorhttp.CalibrateRequest{Observed: observed})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cal := decode[gatorhttp.CalibrationResponse](t, w)
	require.True(t, cal.Calibrated)
	assert.InDelta(t, 10, cal.Matrix[2], 1e-9)
	assert.InDelta(t, 20, cal.Matrix[5], 1e-9)

	_, err := store.Load(t.Context(), "bench")
	assert.NoError(t, err)

	w = do(t, h, "POST", "/transform", gatorhttp.TransformRequest{Point: gatorhttp.Point{X: 5, Y: 5}})
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[gatorhttp.Point](t, w)
	assert.InDelta(t, 15, p.X, 1e-9)
	assert.InDelta(t, 25, p.Y, 1e-9)

	w = do(t, h, "POST", "/transform", gatorhttp.TransformRequest{Point: gatorhttp.Point{X: 15, Y: 25}, Inverse: true})
	require.Equal(t, http.StatusOK, w.Code)
	p = decode[gatorhttp.Point](t, w)
	assert.InDelta(t, 5, p.X, 1e-9)
}

func TestPutCalibration_Rejected(t *testing.T) {
	h, _ := newServer(t)

	w := do(t, h, "PUT", "/calibration", gatorhttp.CalibrateRequest{Observed: []gatorhttp.Point{{X: 1}}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	collinear := []gatorhttp.Point{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 0}}
	w = do(t, h, "PUT", "/calibration", gatorhttp.CalibrateRequest{Observed: collinear})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, "GET", "/calibration", nil)
	assert.False(t, decode[gatorhttp.CalibrationResponse](t, w).Calibrated)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("PUT", "/calibration", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInfo(t *testing.T) {
	h, _ := newServer(t)
	w := do(t, h, "GET", "/info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[map[string]string](t, w)
	assert.Equal(t, "bench", info["profile"])
	assert.Equal(t, gator.Version, info["version"])
}
