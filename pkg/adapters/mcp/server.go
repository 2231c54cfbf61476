package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/gator"
	"github.com/aretw0/gator/internal/logging"
	"github.com/aretw0/gator/pkg/calibration"
	"github.com/aretw0/gator/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Circuit is a catalog entry as returned to the client.
type Circuit struct {
	X      float64           `json:"x" jsonschema_description:"Design x coordinate"`
	Y      float64           `json:"y" jsonschema_description:"Design y coordinate"`
	Params map[string]string `json:"params,omitempty" jsonschema_description:"Free-form circuit parameters"`
}

// CircuitsResponse lists circuits.
type CircuitsResponse struct {
	Count    int       `json:"count"`
	Circuits []Circuit `json:"circuits"`
}

// PointResponse is a converted coordinate.
type PointResponse struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CalibrationResponse reports the active calibration.
type CalibrationResponse struct {
	Profile    string     `json:"profile"`
	Calibrated bool       `json:"calibrated"`
	Matrix     [6]float64 `json:"matrix,omitzero" jsonschema_description:"Affine coefficients a b c d e f, stage = [a b c; d e f] * design"`
	Targets    []Circuit  `json:"targets,omitempty" jsonschema_description:"Calibration targets in the order they must be observed"`
}

// Session is the part of *gator.Session exposed as tools.
type Session interface {
	Profile() string
	Circuits() *domain.CircuitMap
	CalibrationTargets() ([]*domain.Circuit, error)
	Transformer() *calibration.Transformer
	ToStage(design domain.Location) (domain.Location, error)
	ToDesign(stage domain.Location) (domain.Location, error)
}

var _ Session = (*gator.Session)(nil)

// Server wraps a gator session and exposes it as an MCP Server.
type Server struct {
	session   Session
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(sess Session, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		session:   sess,
		logger:    logger,
		mcpServer: server.NewMCPServer("gator-mcp", strings.TrimSpace(gator.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when ctx ends.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	filterTool := mcp.NewTool("filter_circuits",
		mcp.WithDescription("List catalog circuits. 'by' keeps circuits matching every pair; 'out' then drops circuits that have all of its keys and match one value."),
		mcp.WithString("by", mcp.Description(`JSON object of parameter values to keep, e.g. {"type":"ring"}`)),
		mcp.WithString("out", mcp.Description(`JSON object of parameter values to drop, e.g. {"radius":"10"}`)),
		mcp.WithOutputSchema[CircuitsResponse](),
	)
	s.mcpServer.AddTool(filterTool, mcp.NewStructuredToolHandler(s.handleFilter))

	toStageTool := mcp.NewTool("to_stage",
		mcp.WithDescription("Convert a design (GDS) coordinate to a stage coordinate with the active calibration."),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Design x")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Design y")),
		mcp.WithOutputSchema[PointResponse](),
	)
	s.mcpServer.AddTool(toStageTool, mcp.NewStructuredToolHandler(s.handleToStage))

	toDesignTool := mcp.NewTool("to_design",
		mcp.WithDescription("Convert a stage coordinate back to a design coordinate."),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Stage x")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Stage y")),
		mcp.WithOutputSchema[PointResponse](),
	)
	s.mcpServer.AddTool(toDesignTool, mcp.NewStructuredToolHandler(s.handleToDesign))

	calTool := mcp.NewTool("calibration",
		mcp.WithDescription("Report the active calibration and the calibration targets."),
		mcp.WithOutputSchema[CalibrationResponse](),
	)
	s.mcpServer.AddTool(calTool, mcp.NewStructuredToolHandler(s.handleCalibration))
}

func predicate(args map[string]interface{}, name string) (map[string]string, error) {
	raw, ok := args[name].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var pred map[string]string
	if err := json.Unmarshal([]byte(raw), &pred); err != nil {
		return nil, fmt.Errorf("%s: want a JSON object of strings: %w", name, err)
	}
	return pred, nil
}

func point(args map[string]interface{}) (domain.Location, error) {
	x, okX := args["x"].(float64)
	y, okY := args["y"].(float64)
	if !okX || !okY {
		return domain.Location{}, errors.New("x and y must be numbers")
	}
	return domain.Loc(x, y), nil
}

func (s *Server) handleFilter(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CircuitsResponse, error) {
	by, err := predicate(args, "by")
	if err != nil {
		return CircuitsResponse{}, err
	}
	out, err := predicate(args, "out")
	if err != nil {
		return CircuitsResponse{}, err
	}

	m := s.session.Circuits()
	if len(by) > 0 {
		m = m.FilterBy(by)
	}
	if len(out) > 0 {
		m = m.FilterOut(out)
	}
	cs := circuits(m.Circuits())
	return CircuitsResponse{Count: len(cs), Circuits: cs}, nil
}

func (s *Server) handleToStage(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (PointResponse, error) {
	return s.convert(args, s.session.ToStage)
}

func (s *Server) handleToDesign(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (PointResponse, error) {
	return s.convert(args, s.session.ToDesign)
}

func (s *Server) convert(args map[string]interface{}, fn func(domain.Location) (domain.Location, error)) (PointResponse, error) {
	in, err := point(args)
	if err != nil {
		return PointResponse{}, err
	}
	loc, err := fn(in)
	if err != nil {
		s.logger.Warn("MCP transform rejected", "err", err)
		return PointResponse{}, err
	}
	return PointResponse{X: loc.X, Y: loc.Y}, nil
}

func (s *Server) handleCalibration(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CalibrationResponse, error) {
	resp := CalibrationResponse{Profile: s.session.Profile()}
	if m, ok := s.session.Transformer().Calibration(); ok {
		resp.Calibrated, resp.Matrix = true, m.Coefficients()
	}
	if targets, err := s.session.CalibrationTargets(); err == nil {
		resp.Targets = circuits(targets)
	} else {
		s.logger.Debug("MCP calibration: no targets", "err", err)
	}
	return resp, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("gator://circuits", "Circuit catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(circuits(s.session.Circuits().Circuits()))
		if err != nil {
			return nil, fmt.Errorf("failed to encode catalog: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "gator://circuits",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func circuits(cs []*domain.Circuit) []Circuit {
	res := make([]Circuit, len(cs))
	for i, c := range cs {
		res[i] = Circuit{X: c.Loc.X, Y: c.Loc.Y, Params: c.Params}
	}
	return res
}
