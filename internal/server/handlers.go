package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/huangsam/scorechart/core"
	"github.com/huangsam/scorechart/internal/contract"
	"github.com/huangsam/scorechart/internal/outwriter"
	"github.com/huangsam/scorechart/internal/reader"
	"github.com/huangsam/scorechart/schema"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// chartRequest is the body of POST /v1/charts.
type chartRequest struct {
	Instrument string          `json:"instrument"`
	Width      int             `json:"width,omitempty"`
	Points     json.RawMessage `json:"points"`
}

// tooltipRequest is the body of POST /v1/tooltip.
type tooltipRequest struct {
	Tooltip schema.TooltipSpec `json:"tooltip"`
	Payload map[string]any     `json:"payload"`
}

// recordResponse reports a stored batch.
type recordResponse struct {
	Recorded int `json:"recorded"`
	Dropped  int `json:"dropped"`
}

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status string              `json:"status"`
	Store  *schema.StoreStatus `json:"store,omitempty"`
}

func (s *Server) handleHealth(c echo.Context) error {
	resp := healthResponse{Status: "ok"}
	if s.store != nil {
		status, err := s.store.GetStatus()
		if err != nil {
			zerolog.Ctx(c.Request().Context()).Warn().Err(err).Msg("store status failed")
			resp.Status = "degraded"
			return c.JSON(http.StatusServiceUnavailable, resp)
		}
		resp.Store = &status
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleInstruments(c echo.Context) error {
	var buf bytes.Buffer
	if err := outwriter.WriteInstruments(&buf, s.reg.Instruments(), &contract.Config{Output: schema.JSONOut}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSONBlob(http.StatusOK, buf.Bytes())
}

func (s *Server) handleComposeChart(c echo.Context) error {
	ctx := c.Request().Context()

	var req chartRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if req.Instrument == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "instrument is required")
	}

	cfg := *s.cfg
	if req.Width != 0 {
		if req.Width < contract.MinWidth || req.Width > contract.MaxWidth {
			return echo.NewHTTPError(http.StatusBadRequest, "width is out of range")
		}
		cfg.Width = req.Width
	}

	points, dropped, err := reader.ReadPoints(bytes.NewReader(req.Points), schema.JSONInput)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid points: "+err.Error())
	}
	if dropped > 0 {
		zerolog.Ctx(ctx).Warn().Int("dropped", dropped).Str("instrument", req.Instrument).Msg("dropped points without a usable timestamp")
	}

	chart, err := cfg.ComposeInstrument(ctx, s.reg, strings.ToLower(req.Instrument), points)
	if err != nil {
		return httpError(err)
	}
	return s.writeChart(c, &cfg, chart)
}

func (s *Server) handleTooltip(c echo.Context) error {
	var req tooltipRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	content := core.FormatTooltipRaw(c.Request().Context(), req.Tooltip, req.Payload)
	return c.JSON(http.StatusOK, content)
}

func (s *Server) handlePatientChart(c echo.Context) error {
	if s.store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no observation store is configured")
	}
	ctx := c.Request().Context()
	patient, instrument := c.Param("patient"), strings.ToLower(c.Param("instrument"))

	if _, err := s.reg.Lookup(instrument); err != nil {
		return httpError(err)
	}
	points, err := s.store.Points(ctx, patient, instrument)
	if err != nil {
		return httpError(err)
	}

	chart, err := s.cfg.ComposeInstrument(ctx, s.reg, instrument, points)
	if err != nil {
		return httpError(err)
	}
	return s.writeChart(c, s.cfg, chart)
}

func (s *Server) handlePatientDashboard(c echo.Context) error {
	if s.store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no observation store is configured")
	}
	charts, err := s.cfg.ComposePatientDashboard(c.Request().Context(), s.reg, s.store, c.Param("patient"))
	if err != nil {
		return httpError(err)
	}

	format, err := responseFormat(c)
	if err != nil {
		return err
	}
	if format == schema.JSONOut {
		return c.JSON(http.StatusOK, charts)
	}
	cfg := *s.cfg
	cfg.Output = format
	setContentType(c, format)
	return outwriter.WriteCharts(c.Response(), charts, &cfg, 0)
}

func (s *Server) handleRecordObservations(c echo.Context) error {
	if s.store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no observation store is configured")
	}
	ctx := c.Request().Context()
	patient, instrument := c.Param("patient"), strings.ToLower(c.Param("instrument"))

	if _, err := s.reg.Lookup(instrument); err != nil {
		return httpError(err)
	}
	points, dropped, err := reader.ReadPoints(c.Request().Body, schema.JSONInput)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid points: "+err.Error())
	}

	recorded, err := s.store.Record(ctx, patient, instrument, points)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, recordResponse{Recorded: recorded, Dropped: dropped})
}

// writeChart answers with the chart in the format named by the format query parameter.
func (s *Server) writeChart(c echo.Context, cfg *contract.Config, chart schema.DashboardChart) error {
	format, err := responseFormat(c)
	if err != nil {
		return err
	}
	if format == schema.JSONOut {
		return c.JSON(http.StatusOK, chart.Chart)
	}
	out := *cfg
	out.Output = format
	setContentType(c, format)
	return outwriter.WriteChart(c.Response(), chart, &out, 0)
}

// responseFormat reads the format query parameter. Only formats that stream
// without a file are accepted.
func responseFormat(c echo.Context) (schema.OutputMode, error) {
	switch format := schema.OutputMode(strings.ToLower(c.QueryParam("format"))); format {
	case "", schema.JSONOut:
		return schema.JSONOut, nil
	case schema.CSVOut, schema.HTMLOut:
		return format, nil
	default:
		return "", echo.NewHTTPError(http.StatusBadRequest, "format must be json, csv or html")
	}
}

func setContentType(c echo.Context, format schema.OutputMode) {
	switch format {
	case schema.CSVOut:
		c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	case schema.HTMLOut:
		c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	}
	c.Response().WriteHeader(http.StatusOK)
}

// httpError maps domain errors to HTTP errors.
func httpError(err error) error {
	switch {
	case errors.Is(err, core.ErrUnknownInstrument):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
