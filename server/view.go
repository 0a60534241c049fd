package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sartorproj/brickcast/dataset"
	"github.com/sartorproj/brickcast/explore"
	"github.com/sartorproj/brickcast/forecast"
)

// View is the per-request state every page derives from: the selected year
// range and the tables it applies to. It replaces shared session state.
type View struct {
	Range explore.YearRange
	Full  *dataset.Table
	Table *dataset.Table
}

// FirstSeenTable is the table first appearances are computed over.
func (v *View) FirstSeenTable(global bool) *dataset.Table {
	if global {
		return v.Full
	}
	return v.Table
}

// badRequest marks user input errors.
type badRequest struct{ err error }

func (e *badRequest) Error() string { return e.err.Error() }
func (e *badRequest) Unwrap() error { return e.err }

func invalid(format string, args ...any) error {
	return &badRequest{err: fmt.Errorf(format, args...)}
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid("%s: %q is not an integer", name, raw)
	}
	return v, nil
}

func queryBool(c *gin.Context, name string) bool {
	v, _ := strconv.ParseBool(c.Query(name))
	return v
}

// yearRange reads start and end, defaulting to the configured bounds.
func (s *Server) yearRange(c *gin.Context) (explore.YearRange, error) {
	lo, hi := s.cfg.Explorer.MinYear, s.cfg.Explorer.MaxYear
	start, err := queryInt(c, "start", lo)
	if err != nil {
		return explore.YearRange{}, err
	}
	end, err := queryInt(c, "end", hi)
	if err != nil {
		return explore.YearRange{}, err
	}
	r := explore.YearRange{Start: start, End: end}
	if err := r.Within(lo, hi); err != nil {
		return r, &badRequest{err: err}
	}
	return r, nil
}

func (s *Server) sources() ([]string, error) {
	chunks, dir, pattern := s.cfg.Sources()
	if len(chunks) > 0 {
		return chunks, nil
	}
	return dataset.Discover(dir, pattern)
}

func (s *Server) table(c *gin.Context) (*dataset.Table, error) {
	sources, err := s.sources()
	if err != nil {
		return nil, err
	}
	return s.cache.Get(c.Request.Context(), sources)
}

// view loads the cached table and applies the year filter.
func (s *Server) view(c *gin.Context) (*View, error) {
	r, err := s.yearRange(c)
	if err != nil {
		return nil, err
	}
	full, err := s.table(c)
	if err != nil {
		return nil, err
	}
	return &View{Range: r, Full: full, Table: explore.Filter(full, r)}, nil
}

func (s *Server) topN(c *gin.Context) (int, error) {
	n, err := queryInt(c, "top", s.cfg.Explorer.DefaultTopN)
	if err != nil {
		return 0, err
	}
	if n < 1 || n > s.cfg.Explorer.MaxTopN {
		return 0, invalid("top must be 1-%d, got %d", s.cfg.Explorer.MaxTopN, n)
	}
	return n, nil
}

func (s *Server) forecastParams(c *gin.Context) (forecast.Params, error) {
	p := forecast.DefaultParams()
	p.TestYears = s.cfg.Forecast.TestYears
	var err error
	if p.Diff, err = queryInt(c, "diff", s.cfg.Forecast.DefaultDiff); err != nil {
		return p, err
	}
	if p.P, err = queryInt(c, "p", s.cfg.Forecast.DefaultP); err != nil {
		return p, err
	}
	if p.Q, err = queryInt(c, "q", s.cfg.Forecast.DefaultQ); err != nil {
		return p, err
	}
	if err := p.Validate(); err != nil {
		return p, &badRequest{err: err}
	}
	return p, nil
}

func (s *Server) tableQuery(c *gin.Context) (explore.Query, error) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return explore.Query{}, err
	}
	return explore.Query{
		Sort:   c.Query("sort"),
		Desc:   queryBool(c, "desc"),
		Search: c.Query("q"),
		Limit:  limit,
	}, nil
}

// status maps an error to its HTTP status. Load failures and anything
// unexpected are 500s.
func status(err error) int {
	var br *badRequest
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest
	case errors.Is(err, forecast.ErrNoData), errors.Is(err, forecast.ErrTooShort):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	code := status(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Request.URL.Path, "request_id", c.GetString(requestIDKey), "error", err)
	}
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}
