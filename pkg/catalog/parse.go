package catalog

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/gator/internal/logging"
	"github.com/aretw0/gator/pkg/domain"
)

// Report summarizes a catalog load so operators can audit large files.
type Report struct {
	Lines   int
	Loaded  int
	Skipped int
	Errors  []*domain.ParseFormatError
}

type options struct {
	logger *slog.Logger
}

// Option configures parsing.
type Option func(*options)

// WithLogger sets the logger that receives one warning per skipped line.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Parse reads a catalog from r.
// The report is returned even when err is a *domain.DuplicateLocationError.
func Parse(r io.Reader, opts ...Option) (*domain.CircuitMap, *Report, error) {
	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	m := domain.NewCircuitMap()
	report := &Report{}
	seen := make(map[domain.Location]int)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		c, perr := parseLine(lineNo, line)
		if perr != nil {
			report.Skipped++
			report.Errors = append(report.Errors, perr)
			o.logger.Warn("Could not parse line", "line", perr.Line, "reason", perr.Reason, "text", perr.Text)
			continue
		}

		if first, dup := seen[c.Loc]; dup {
			report.Lines = lineNo
			return nil, report, &domain.DuplicateLocationError{Loc: c.Loc, FirstLine: first, SecondLine: lineNo}
		}
		seen[c.Loc] = lineNo
		m.Append(c)
		report.Loaded++
	}
	if err := sc.Err(); err != nil {
		return nil, report, fmt.Errorf("failed to read catalog: %w", err)
	}
	report.Lines = lineNo

	o.logger.Info("Catalog loaded", "loaded", report.Loaded, "skipped", report.Skipped)
	return m, report, nil
}

// LoadFile parses the catalog stored at path.
func LoadFile(path string, opts ...Option) (*domain.CircuitMap, *Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	m, report, err := Parse(f, opts...)
	if err != nil {
		return nil, report, fmt.Errorf("%s: %w", path, err)
	}
	return m, report, nil
}

func parseLine(lineNo int, line string) (*domain.Circuit, *domain.ParseFormatError) {
	fail := func(reason string) *domain.ParseFormatError {
		return &domain.ParseFormatError{Line: lineNo, Text: line, Reason: reason}
	}

	if !strings.HasPrefix(line, "(") {
		return nil, fail("expected '(' at start of record")
	}
	coords, rest, ok := strings.Cut(line[1:], ")")
	if !ok {
		return nil, fail("missing ')'")
	}

	xs, ys, ok := strings.Cut(coords, ",")
	if !ok || strings.Contains(ys, ",") {
		return nil, fail("coordinates must be a pair")
	}
	x, err := parseCoord(xs)
	if err != nil {
		return nil, fail("bad x coordinate")
	}
	y, err := parseCoord(ys)
	if err != nil {
		return nil, fail("bad y coordinate")
	}

	params := domain.Params{}
	rest = strings.TrimSpace(rest)
	if rest != "" {
		for _, tok := range strings.Split(rest, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				return nil, fail("empty parameter")
			}
			key, value, ok := strings.Cut(tok, "=")
			if !ok {
				return nil, fail(fmt.Sprintf("parameter %q is not key=value", tok))
			}
			key = strings.TrimSpace(key)
			if key == "" {
				return nil, fail("empty parameter key")
			}
			params[key] = strings.TrimSpace(value)
		}
	}

	return &domain.Circuit{Loc: domain.Loc(x, y), Params: params}, nil
}

func parseCoord(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite coordinate")
	}
	return f, nil
}
