package web

import (
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"ee-stats/connectors/report"

	"github.com/labstack/echo/v4"
)

// Run starts a small Echo web server exposing the collected report as JSON
// and an optional SPA dashboard.
//
// Usage:
//
//	ee-stats web [-addr :8080] [-report object_stats.json] [-ui ./ui/dist]
//
// Endpoints:
//
//	GET /api/report           -> whole report
//	GET /api/summary          -> summary block
//	GET /api/peaks            -> peaks block
//	GET /api/rankings         -> dataset_rankings
//	GET /api/trends/daily     -> daily_trends
//	GET /api/trends/weekly    -> weekly_trends
//	GET /api/trends/monthly   -> monthly_trends
//	GET /api/data             -> daily_data or rolling_30d_data, whichever the report carries
//
// When -ui points to a built Vite app (index.html exists), static files are served at / and
// unknown routes fall back to index.html for SPA routing.
func Run(args []string) error {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	addr := fs.String("addr", ":8080", "http listen address (host:port)")
	reportPath := fs.String("report", "object_stats.json", "report JSON written by collect")
	uiDir := fs.String("ui", "./ui/dist", "directory containing built UI (Vite dist)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return NewServer(*reportPath, *uiDir).Start(*addr)
}

// NewServer builds the Echo instance. The report is re-read on every request so
// a fresh collect run is picked up without a restart.
func NewServer(reportPath, uiDir string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.GET("/api/report", func(c echo.Context) error {
		sections, err := report.ReadSections(reportPath)
		if err != nil {
			return readError(c, reportPath, err)
		}
		return c.JSON(http.StatusOK, sections)
	})

	// Helper to register a GET endpoint serving one top-level report member
	serveSection := func(route string, keys ...string) {
		e.GET(route, func(c echo.Context) error {
			sections, err := report.ReadSections(reportPath)
			if err != nil {
				return readError(c, reportPath, err)
			}
			for _, k := range keys {
				if raw, ok := sections[k]; ok {
					return c.JSONBlob(http.StatusOK, raw)
				}
			}
			return c.JSON(http.StatusNotFound, map[string]any{
				"error":   "section not found",
				"path":    reportPath,
				"message": "report has no " + strings.Join(keys, " or "),
			})
		})
	}

	serveSection("/api/summary", "summary")
	serveSection("/api/peaks", "peaks")
	serveSection("/api/rankings", "dataset_rankings")
	serveSection("/api/trends/daily", "daily_trends")
	serveSection("/api/trends/weekly", "weekly_trends")
	serveSection("/api/trends/monthly", "monthly_trends")
	serveSection("/api/data", "daily_data", "rolling_30d_data")

	// Static UI (optional)
	indexPath := filepath.Join(uiDir, "index.html")
	if fi, err := os.Stat(indexPath); err == nil && !fi.IsDir() {
		e.Static("/", uiDir)
		e.GET("/", func(c echo.Context) error { return c.File(indexPath) })

		// Fallback to index.html for non-API 404s (SPA routing) while keeping static assets working
		e.HTTPErrorHandler = func(err error, c echo.Context) {
			if he, ok := err.(*echo.HTTPError); ok && he.Code == http.StatusNotFound {
				if !strings.HasPrefix(c.Request().URL.Path, "/api") {
					_ = c.File(indexPath)
					return
				}
			}
			e.DefaultHTTPErrorHandler(err, c)
		}
	}
	return e
}

func readError(c echo.Context, path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return c.JSON(http.StatusNotFound, map[string]any{
			"error":   "file not found",
			"path":    path,
			"message": "report has not been collected yet",
		})
	}
	var syntaxErr *json.SyntaxError
	msg := "failed to read report"
	if errors.As(err, &syntaxErr) {
		msg = "report is not valid JSON"
	}
	return c.JSON(http.StatusInternalServerError, map[string]any{
		"error":   err.Error(),
		"path":    path,
		"message": msg,
	})
}
