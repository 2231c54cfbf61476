package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/gator"
	"github.com/aretw0/gator/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *gator.Session) {
	t.Helper()
	flag := domain.Params{domain.KeyCalibrationCircuit: domain.TrueValue}
	cmap := domain.NewCircuitMap(
		domain.NewCircuit(domain.Loc(0, 0), flag.Clone()),
		domain.NewCircuit(domain.Loc(5, 5), domain.Params{"type": "ring", "radius": "10"}),
		domain.NewCircuit(domain.Loc(6, 5), domain.Params{"type": "ring", "radius": "20"}),
		domain.NewCircuit(domain.Loc(0, 10), flag.Clone()),
		domain.NewCircuit(domain.Loc(10, 10), flag.Clone()),
	)
	s, err := gator.New(gator.WithCircuitMap(cmap), gator.WithProfile("bench"))
	require.NoError(t, err)
	return NewServer(s, nil), s
}

func TestFilterCircuits(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	resp, err := srv.handleFilter(ctx, mcp.CallToolRequest{}, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Count)

	resp, err = srv.handleFilter(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"by":  `{"type":"ring"}`,
		"out": `{"radius":"10"}`,
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, 6.0, resp.Circuits[0].X)

	_, err = srv.handleFilter(ctx, mcp.CallToolRequest{}, map[string]interface{}{"by": "type=ring"})
	assert.Error(t, err)
}

func TestToStage(t *testing.T) {
	srv, sess := newTestServer(t)
	ctx := context.Background()
	args := map[string]interface{}{"x": 5.0, "y": 5.0}

	_, err := srv.handleToStage(ctx, mcp.CallToolRequest{}, args)
	assert.ErrorIs(t, err, domain.ErrUncalibrated)

	require.NoError(t, sess.InstallCalibration(ctx, domain.NewAffineMatrix(1, 0, 10, 0, 1, 20)))
	p, err := srv.handleToStage(ctx, mcp.CallToolRequest{}, args)
	require.NoError(t, err)
	assert.InDelta(t, 15, p.X, 1e-9)
	assert.InDelta(t, 25, p.Y, 1e-9)

	p, err = srv.handleToDesign(ctx, mcp.CallToolRequest{}, map[string]interface{}{"x": 15.0, "y": 25.0})
	require.NoError(t, err)
	assert.InDelta(t, 5, p.X, 1e-9)

	_, err = srv.handleToStage(ctx, mcp.CallToolRequest{}, map[string]interface{}{"x": "5"})
	assert.Error(t, err)
}

func TestCalibrationTool(t *testing.T) {
	srv, sess := newTestServer(t)
	ctx := context.Background()

	resp, err := srv.handleCalibration(ctx, mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "bench", resp.Profile)
	assert.False(t, resp.Calibrated)
	assert.Len(t, resp.Targets, 3)

	require.NoError(t, sess.InstallCalibration(ctx, domain.NewAffineMatrix(1, 0, 10, 0, 1, 20)))
	resp, err = srv.handleCalibration(ctx, mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.True(t, resp.Calibrated)
	assert.Equal(t, [6]float64{1, 0, 10, 0, 1, 20}, resp.Matrix)
}
