package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gonum.org/v1/plot"

	"github.com/sartorproj/brickcast/chart"
	"github.com/sartorproj/brickcast/explore"
	"github.com/sartorproj/brickcast/forecast"
)

// ChartNames lists the images served under /charts.
var ChartNames = []string{"themes", "yearly", "largest", "hierarchy", "diff", "acf", "pacf", "forecast"}

func (s *Server) buildChart(c *gin.Context, name string) (*plot.Plot, error) {
	v, err := s.view(c)
	if err != nil {
		return nil, err
	}

	switch name {
	case "themes", "yearly", "largest":
		top, err := s.topN(c)
		if err != nil {
			return nil, err
		}
		rank, err := explore.TopThemes(v.Table, top)
		if err != nil {
			return nil, &badRequest{err: err}
		}
		switch name {
		case "themes":
			return chart.Themes(rank)
		case "yearly":
			return chart.Yearly(explore.YearlyThemeSets(v.Table, rank))
		default:
			return chart.Largest(explore.LargestSetPerYear(v.Table))
		}
	case "hierarchy":
		return chart.Hierarchy(hierarchy(v, c.Query("theme")).Hierarchy)
	case "diff", "acf", "pacf", "forecast":
		p, err := s.forecastParams(c)
		if err != nil {
			return nil, err
		}
		res, err := forecast.Run(v.Table, p)
		if err != nil {
			return nil, err
		}
		diag := res.Diagnostics
		switch name {
		case "diff":
			return chart.Series(fmt.Sprintf("Training series differenced %d times", diag.Order), diag.Differenced)
		case "acf":
			return chart.Correlogram("Autocorrelation", diag.ACF)
		case "pacf":
			return chart.Correlogram("Partial autocorrelation", diag.PACF)
		default:
			return chart.Forecast(res)
		}
	}
	return nil, fmt.Errorf("unknown chart %q", name)
}

// Chart renders one dashboard figure as PNG.
// GET /charts/:name
func (s *Server) Chart(c *gin.Context) {
	name := strings.TrimSuffix(c.Param("name"), ".png")
	known := false
	for _, n := range ChartNames {
		known = known || n == name
	}
	if !known {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown chart " + name})
		return
	}

	p, err := s.buildChart(c, name)
	if errors.Is(err, chart.ErrEmpty) {
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}

	var buf bytes.Buffer
	if err := chart.Render(&buf, p); err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
