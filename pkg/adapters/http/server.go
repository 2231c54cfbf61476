package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/gator"
	"github.com/aretw0/gator/internal/logging"
	"github.com/aretw0/gator/pkg/calibration"
	"github.com/aretw0/gator/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// Session is the part of *gator.Session served over HTTP.
type Session interface {
	Profile() string
	Circuits() *domain.CircuitMap
	CalibrationTargets() ([]*domain.Circuit, error)
	Calibrate(ctx context.Context, observed [3]domain.Location) (domain.AffineMatrix, error)
	Transformer() *calibration.Transformer
	ToStage(design domain.Location) (domain.Location, error)
	ToDesign(stage domain.Location) (domain.Location, error)
}

var _ Session = (*gator.Session)(nil)

// Circuit is the wire form of a catalog entry.
type Circuit struct {
	X      float64           `json:"x"`
	Y      float64           `json:"y"`
	Params map[string]string `json:"params,omitempty"`
}

// Point is an (x, y) pair.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CalibrationResponse reports the active calibration.
type CalibrationResponse struct {
	Calibrated bool        `json:"calibrated"`
	Matrix     *[6]float64 `json:"matrix,omitempty"`
	Text       string      `json:"text,omitempty"`
}

// CalibrateRequest carries the stage positions observed for the three
// calibration targets, in target order.
type CalibrateRequest struct {
	Observed []Point `json:"observed"`
}

// TransformRequest converts Point to stage coordinates, or back to design
// coordinates when Inverse is set.
type TransformRequest struct {
	Point
	Inverse bool `json:"inverse,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server serves a gator session.
type Server struct {
	Session Session
	Logger  *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates a new HTTP handler for the session. Extra routes such as
// /metrics can be mounted on the returned router.
func NewHandler(sess Session, opts ...Option) chi.Router {
	server := &Server{Session: sess, Logger: logging.NewNop()}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Use(enableCORS)
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/circuits", server.ListCircuits)
	r.Get("/calibration/targets", server.GetTargets)
	r.Get("/calibration", server.GetCalibration)
	r.Put("/calibration", server.PutCalibration)
	r.Post("/transform", server.Transform)
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListCircuits handles GET /circuits. Query parameters "by.<key>=<value>"
// keep circuits matching every pair; "out.<key>=<value>" then drops circuits
// that have all the out keys and match one of them.
func (s *Server) ListCircuits(w http.ResponseWriter, r *http.Request) {
	by, out := map[string]string{}, map[string]string{}
	for k, vs := range r.URL.Query() {
		switch {
		case strings.HasPrefix(k, "by."):
			by[strings.TrimPrefix(k, "by.")] = vs[0]
		case strings.HasPrefix(k, "out."):
			out[strings.TrimPrefix(k, "out.")] = vs[0]
		default:
			s.fail(w, http.StatusBadRequest, fmt.Errorf("unknown query parameter %q (want by.<key> or out.<key>)", k))
			return
		}
	}

	m := s.Session.Circuits()
	if len(by) > 0 {
		m = m.FilterBy(by)
	}
	if len(out) > 0 {
		m = m.FilterOut(out)
	}
	s.write(w, http.StatusOK, circuitsFromDomain(m.Circuits()))
}

// GetTargets handles GET /calibration/targets.
func (s *Server) GetTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := s.Session.CalibrationTargets()
	if err != nil {
		s.fail(w, status(err), err)
		return
	}
	s.write(w, http.StatusOK, circuitsFromDomain(targets))
}

// GetCalibration handles GET /calibration.
func (s *Server) GetCalibration(w http.ResponseWriter, r *http.Request) {
	m, ok := s.Session.Transformer().Calibration()
	s.write(w, http.StatusOK, calibrationResponse(m, ok))
}

// PutCalibration handles PUT /calibration: it solves, installs and persists a
// calibration from three observed stage points.
func (s *Server) PutCalibration(w http.ResponseWriter, r *http.Request) {
	var body CalibrateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if len(body.Observed) != 3 {
		s.fail(w, http.StatusUnprocessableEntity, fmt.Errorf("%w: got %d", domain.ErrCalibrationInput, len(body.Observed)))
		return
	}
	var observed [3]domain.Location
	for i, p := range body.Observed {
		observed[i] = domain.Loc(p.X, p.Y)
	}

	m, err := s.Session.Calibrate(r.Context(), observed)
	if err != nil {
		s.fail(w, status(err), err)
		return
	}
	s.Logger.Info("Calibration installed", "profile", s.Session.Profile(), "matrix", m.String())
	s.write(w, http.StatusOK, calibrationResponse(m, true))
}

// Transform handles POST /transform.
func (s *Server) Transform(w http.ResponseWriter, r *http.Request) {
	var body TransformRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	convert := s.Session.ToStage
	if body.Inverse {
		convert = s.Session.ToDesign
	}
	loc, err := convert(domain.Loc(body.X, body.Y))
	if err != nil {
		s.fail(w, status(err), err)
		return
	}
	s.write(w, http.StatusOK, Point{X: loc.X, Y: loc.Y})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.write(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.write(w, http.StatusOK, map[string]string{
		"app":     "gator-http",
		"version": strings.TrimSpace(gator.Version),
		"profile": s.Session.Profile(),
	})
}

// status maps domain errors onto response codes.
func status(err error) int {
	switch {
	case errors.Is(err, domain.ErrUncalibrated):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCalibrationSingular), errors.Is(err, domain.ErrCalibrationInput):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, code int, err error) {
	if code >= http.StatusInternalServerError {
		s.Logger.Error("Request failed", "err", err)
	} else {
		s.Logger.Warn("Request rejected", "status", code, "err", err)
	}
	s.write(w, code, errorResponse{Error: err.Error()})
}

func (s *Server) write(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("Response encode failed", "err", err)
	}
}

// -- Helpers --

func circuitsFromDomain(cs []*domain.Circuit) []Circuit {
	res := make([]Circuit, len(cs))
	for i, c := range cs {
		res[i] = Circuit{X: c.Loc.X, Y: c.Loc.Y, Params: c.Params}
	}
	return res
}

func calibrationResponse(m domain.AffineMatrix, ok bool) CalibrationResponse {
	if !ok {
		return CalibrationResponse{}
	}
	coef := m.Coefficients()
	return CalibrationResponse{Calibrated: true, Matrix: &coef, Text: m.String()}
}
