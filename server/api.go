package server

import (
	"fmt"
	"math"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/sartorproj/brickcast/arima"
	"github.com/sartorproj/brickcast/autoarima"
	"github.com/sartorproj/brickcast/dataset"
	"github.com/sartorproj/brickcast/explore"
	"github.com/sartorproj/brickcast/forecast"
	"github.com/sartorproj/brickcast/timeseries"
)

// Card is one headline metric.
type Card struct {
	Label   string `json:"label"`
	Value   int    `json:"value"`
	Display string `json:"display"`
}

// OverviewResponse backs the home page.
type OverviewResponse struct {
	Range   explore.YearRange          `json:"range"`
	Counts  explore.Counts             `json:"counts"`
	Cards   []Card                     `json:"cards"`
	Ranking *explore.Ranking           `json:"ranking"`
	Yearly  []explore.YearlyThemeCount `json:"yearly"`
	Largest []explore.LargestSet       `json:"largest"`
}

func (s *Server) overview(v *View, top int) (*OverviewResponse, error) {
	rank, err := explore.TopThemes(v.Table, top)
	if err != nil {
		return nil, &badRequest{err: err}
	}
	counts := explore.NewCounts(v.FirstSeenTable(s.cfg.Explorer.GlobalFirstSeen), v.Range)
	return &OverviewResponse{
		Range:   v.Range,
		Counts:  counts,
		Cards:   cards(counts),
		Ranking: rank,
		Yearly:  explore.YearlyThemeSets(v.Table, rank),
		Largest: explore.LargestSetPerYear(v.Table),
	}, nil
}

func cards(c explore.Counts) []Card {
	card := func(label string, n int) Card {
		return Card{Label: label, Value: n, Display: humanize.Comma(int64(n))}
	}
	return []Card{
		card("New master themes", c.MasterThemes),
		card("New themes", c.Themes),
		card("New sets", c.Sets),
		card("Parts in new sets", c.Parts),
	}
}

// Overview returns the home page aggregates.
// GET /api/overview
func (s *Server) Overview(c *gin.Context) {
	v, err := s.view(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	top, err := s.topN(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	resp, err := s.overview(v, top)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// TableResponse is one page of a sortable table.
type TableResponse[T any] struct {
	Rows  []T `json:"rows"`
	Total int `json:"total"`
}

func (s *Server) setTable(c *gin.Context) (*TableResponse[explore.SetRow], error) {
	v, err := s.view(c)
	if err != nil {
		return nil, err
	}
	q, err := s.tableQuery(c)
	if err != nil {
		return nil, err
	}
	rows, total, err := explore.QueryRows(explore.SetRows(v.Table), explore.SetColumns, q)
	if err != nil {
		return nil, &badRequest{err: err}
	}
	return &TableResponse[explore.SetRow]{Rows: rows, Total: total}, nil
}

// Sets returns the free table of distinct sets.
// GET /api/sets
func (s *Server) Sets(c *gin.Context) {
	resp, err := s.setTable(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

var setExportColumns = []string{
	dataset.ColYear, dataset.ColParentThemeName, dataset.ColThemeName, dataset.ColSetName, dataset.ColNumParts,
}

// SetsExport writes the free table as a workbook.
// GET /api/sets.xlsx
func (s *Server) SetsExport(c *gin.Context) {
	resp, err := s.setTable(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Sets"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		s.fail(c, err)
		return
	}
	header := make([]any, len(setExportColumns))
	for i, col := range setExportColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		s.fail(c, err)
		return
	}
	for i, r := range resp.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{r.Year, r.ParentTheme, r.Theme, r.SetName, r.NumParts}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			s.fail(c, err)
			return
		}
	}

	r, _ := s.yearRange(c)
	filename := fmt.Sprintf("lego-sets-%d-%d.xlsx", r.Start, r.End)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		s.logger.Error("write workbook", "error", err)
	}
}

// Themes lists the master theme options of the selected range.
// GET /api/themes
func (s *Server) Themes(c *gin.Context) {
	v, err := s.view(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"options": explore.ThemeOptions(v.Table)})
}

// HierarchyResponse backs the theme explorer.
type HierarchyResponse struct {
	Theme      string               `json:"theme"`
	Options    []explore.ThemeCount `json:"options"`
	Hierarchy  *explore.Node        `json:"hierarchy"`
	Suggestion string               `json:"suggestion,omitempty"`
}

// hierarchy resolves the theme selection against the options of v. An empty
// theme selects the largest one; an unknown theme yields an empty hierarchy
// and the closest option name.
func hierarchy(v *View, theme string) *HierarchyResponse {
	options := explore.ThemeOptions(v.Table)
	if theme == "" && len(options) > 0 {
		theme = options[0].ParentTheme
	}
	resp := &HierarchyResponse{
		Theme:     theme,
		Options:   options,
		Hierarchy: explore.Hierarchy(v.Table, theme),
	}
	if theme != "" && resp.Hierarchy.Empty() {
		resp.Suggestion = explore.ClosestTheme(theme, options)
	}
	return resp
}

// ThemeHierarchy returns the master theme → theme → set tree.
// GET /api/themes/hierarchy
func (s *Server) ThemeHierarchy(c *gin.Context) {
	v, err := s.view(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, hierarchy(v, c.Query("theme")))
}

// Parts returns the full rows of one master theme, or all rows without one.
// GET /api/parts
func (s *Server) Parts(c *gin.Context) {
	v, err := s.view(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	q, err := s.tableQuery(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	rows, total, err := explore.QueryRows(explore.PartRows(v.Table, c.Query("theme")), explore.PartColumns, q)
	if err != nil {
		s.fail(c, &badRequest{err: err})
		return
	}
	c.JSON(http.StatusOK, TableResponse[dataset.Row]{Rows: rows, Total: total})
}

func (s *Server) runForecast(c *gin.Context) (*forecast.Result, error) {
	v, err := s.view(c)
	if err != nil {
		return nil, err
	}
	p, err := s.forecastParams(c)
	if err != nil {
		return nil, err
	}
	res, err := forecast.Run(v.Table, p)
	if err != nil {
		return nil, err
	}
	if res.FitErr != nil {
		s.logger.Warn("forecast fit failed", "order", arima.Order{P: p.P, D: 1, Q: p.Q}.String(), "error", res.FitErr)
	} else if res.Fit.Warning != "" {
		s.logger.Warn("forecast fit stopped early", "warning", res.Fit.Warning)
	}
	return res, nil
}

// Forecast runs diagnostics, the fit and the evaluation.
// GET /api/forecast
func (s *Server) Forecast(c *gin.Context) {
	res, err := s.runForecast(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SuggestResponse is the automatically selected order.
type SuggestResponse struct {
	Order           arima.Order `json:"order"`
	AIC             *float64    `json:"aic"`
	AICc            *float64    `json:"aicc"`
	BIC             *float64    `json:"bic"`
	ModelsEvaluated int         `json:"models_evaluated"`
	ModelsFailed    int         `json:"models_failed"`
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// ForecastSuggest searches (p, q) for the training series.
// GET /api/forecast/suggest
func (s *Server) ForecastSuggest(c *gin.Context) {
	v, err := s.view(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	cfg := autoarima.DefaultConfig()
	cfg.MaxP, cfg.MaxQ = forecast.MaxOrder, forecast.MaxOrder
	cfg.Logger = s.logger
	res, err := forecast.Suggest(v.Table, s.cfg.Forecast.TestYears, cfg)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, SuggestResponse{
		Order:           res.Order,
		AIC:             finite(res.AIC),
		AICc:            finite(res.AICc),
		BIC:             finite(res.BIC),
		ModelsEvaluated: res.ModelsEvaluated,
		ModelsFailed:    res.ModelsFailed,
	})
}

// ForecastSeries exports the annual set counts as CSV.
// GET /api/forecast/series.csv
func (s *Server) ForecastSeries(c *gin.Context) {
	v, err := s.view(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	series, err := forecast.AnnualSeries(v.Table)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s-%s.csv\"", forecast.SeriesName, v.Range))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	opts := timeseries.DefaultCSVOptions()
	opts.ValueColumn = forecast.SeriesName
	if err := timeseries.WriteCSV(c.Writer, series, opts); err != nil {
		s.logger.Error("write series csv", "error", err)
	}
}

// NotifyResponse reports a delivery attempt.
type NotifyResponse struct {
	Sent    bool   `json:"sent"`
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

// Notify posts the configured message, followed by the forecast summary
// for the same controls, to the webhook. Delivery failures are reported in
// the body.
// POST /api/notify
func (s *Server) Notify(c *gin.Context) {
	content := s.cfg.Notify.Message
	if res, err := s.runForecast(c); err == nil {
		content += "\n" + res.Describe()
	} else if status(err) == http.StatusBadRequest {
		s.fail(c, err)
		return
	}

	resp := NotifyResponse{Content: content}
	if err := s.notifier.Send(c.Request.Context(), content); err != nil {
		s.logger.Warn("notification failed", "error", err)
		resp.Error = err.Error()
	} else {
		resp.Sent = true
	}
	c.JSON(http.StatusOK, resp)
}

// Reload drops the cached dataset so the next request reads the chunks
// again.
// POST /api/reload
func (s *Server) Reload(c *gin.Context) {
	sources, err := s.sources()
	if err != nil {
		s.fail(c, err)
		return
	}
	s.cache.Invalidate(sources)
	c.JSON(http.StatusOK, gin.H{"invalidated": len(sources)})
}
