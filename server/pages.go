package server

import (
	"html/template"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"github.com/sartorproj/brickcast/dataset"
	"github.com/sartorproj/brickcast/explore"
	"github.com/sartorproj/brickcast/forecast"
)

// Rows shown in page tables; the APIs return everything.
const pageRows = 200

var templateFuncs = template.FuncMap{
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
	"float": func(v float64) string { return humanize.FormatFloat("#,###.##", v) },
	"seq": func(n int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	},
	"deref": func(v *float64) float64 {
		if v == nil {
			return 0
		}
		return *v
	},
}

type pageBase struct {
	Title   string
	Active  string
	Range   explore.YearRange
	MinYear int
	MaxYear int
	Query   template.URL
	Error   string
}

type homePage struct {
	pageBase
	Top      int
	MaxTopN  int
	Overview *OverviewResponse
	Sets     *TableResponse[explore.SetRow]
}

type themesPage struct {
	pageBase
	Hierarchy *HierarchyResponse
	Parts     TableResponse[dataset.Row]
}

type forecastPage struct {
	pageBase
	Params        forecast.Params
	Result        *forecast.Result
	NotifyEnabled bool
}

func (s *Server) base(c *gin.Context, title, active string) pageBase {
	r, _ := s.yearRange(c)
	if r.Start == 0 {
		r = explore.YearRange{Start: s.cfg.Explorer.MinYear, End: s.cfg.Explorer.MaxYear}
	}
	return pageBase{
		Title:   title,
		Active:  active,
		Range:   r,
		MinYear: s.cfg.Explorer.MinYear,
		MaxYear: s.cfg.Explorer.MaxYear,
		Query:   template.URL(c.Request.URL.Query().Encode()),
	}
}

func (s *Server) render(c *gin.Context, code int, name string, data any) {
	c.Status(code)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := s.pages.ExecuteTemplate(c.Writer, name, data); err != nil {
		s.logger.Error("render page", "page", name, "error", err)
	}
}

// HomePage renders the overview page.
// GET /
func (s *Server) HomePage(c *gin.Context) {
	page := homePage{
		pageBase: s.base(c, "LEGO sets", "home"),
		MaxTopN:  s.cfg.Explorer.MaxTopN,
	}
	page.Top, _ = s.topN(c)
	if page.Top == 0 {
		page.Top = s.cfg.Explorer.DefaultTopN
	}

	err := func() error {
		v, err := s.view(c)
		if err != nil {
			return err
		}
		top, err := s.topN(c)
		if err != nil {
			return err
		}
		if page.Overview, err = s.overview(v, top); err != nil {
			return err
		}
		sets, total, err := explore.QueryRows(explore.SetRows(v.Table), explore.SetColumns,
			explore.Query{Sort: dataset.ColYear, Desc: true, Limit: pageRows})
		if err != nil {
			return err
		}
		page.Sets = &TableResponse[explore.SetRow]{Rows: sets, Total: total}
		return nil
	}()
	if err != nil {
		page.Error = err.Error()
		s.render(c, status(err), "home", page)
		return
	}
	s.render(c, http.StatusOK, "home", page)
}

// ThemesPage renders the theme explorer.
// GET /themes
func (s *Server) ThemesPage(c *gin.Context) {
	page := themesPage{pageBase: s.base(c, "Theme explorer", "themes")}

	v, err := s.view(c)
	if err != nil {
		page.Error = err.Error()
		s.render(c, status(err), "themes", page)
		return
	}
	page.Hierarchy = hierarchy(v, c.Query("theme"))
	rows, total, _ := explore.QueryRows(explore.PartRows(v.Table, page.Hierarchy.Theme), explore.PartColumns,
		explore.Query{Limit: pageRows})
	page.Parts = TableResponse[dataset.Row]{Rows: rows, Total: total}

	// Chart links carry the resolved theme.
	q := c.Request.URL.Query()
	q.Set("theme", page.Hierarchy.Theme)
	page.Query = template.URL(q.Encode())
	s.render(c, http.StatusOK, "themes", page)
}

// ForecastPage renders the forecaster.
// GET /forecast
func (s *Server) ForecastPage(c *gin.Context) {
	page := forecastPage{
		pageBase:      s.base(c, "Forecaster", "forecast"),
		NotifyEnabled: s.notifier.Enabled(),
	}
	page.Params, _ = s.forecastParams(c)

	res, err := s.runForecast(c)
	if err != nil {
		page.Error = err.Error()
		s.render(c, status(err), "forecast", page)
		return
	}
	page.Result = res
	s.render(c, http.StatusOK, "forecast", page)
}
