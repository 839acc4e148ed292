package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/huangsam/scorechart/core"
	"github.com/huangsam/scorechart/internal/contract"
	"github.com/huangsam/scorechart/internal/outwriter"
	"github.com/huangsam/scorechart/internal/reader"
	"github.com/huangsam/scorechart/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	reg     *core.Registry
	store   contract.ObservationStore
	logger  zerolog.Logger
}

func (h *toolHandler) handleComposeChart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = h.logger.WithContext(ctx)
	cfg := *h.baseCfg

	instrument, err := request.RequireString("instrument")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if w := request.GetInt("width", 0); w != 0 {
		if w < contract.MinWidth || w > contract.MaxWidth {
			return mcp.NewToolResultError(fmt.Sprintf("width must be between %d and %d pixels", contract.MinWidth, contract.MaxWidth)), nil
		}
		cfg.Width = w
	}

	points, err := h.loadPoints(ctx, request, instrument)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	chart, err := cfg.ComposeInstrument(ctx, h.reg, instrument, points)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("compose failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(chart.Chart, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

// loadPoints decodes inline points, or reads the patient's observations from the store.
func (h *toolHandler) loadPoints(ctx context.Context, request mcp.CallToolRequest, instrument string) ([]schema.DataPoint, error) {
	if raw, ok := request.GetArguments()["points"]; ok && raw != nil {
		encoded, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid points: %w", err)
		}
		points, dropped, err := reader.ReadPoints(bytes.NewReader(encoded), schema.JSONInput)
		if err != nil {
			return nil, fmt.Errorf("invalid points: %w", err)
		}
		if dropped > 0 {
			zerolog.Ctx(ctx).Warn().Int("dropped", dropped).Str("instrument", instrument).Msg("dropped points without a usable timestamp")
		}
		return points, nil
	}

	patient := request.GetString("patient", "")
	if patient == "" {
		return nil, errors.New("either points or patient is required")
	}
	if h.store == nil {
		return nil, errors.New("no observation store is configured")
	}
	points, err := h.store.Points(ctx, patient, instrument)
	if err != nil {
		return nil, fmt.Errorf("failed to load observations: %w", err)
	}
	return points, nil
}

func (h *toolHandler) handlePatientDashboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = h.logger.WithContext(ctx)

	patient, err := request.RequireString("patient")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if h.store == nil {
		return mcp.NewToolResultError("no observation store is configured"), nil
	}

	charts, err := h.baseCfg.ComposePatientDashboard(ctx, h.reg, h.store, patient)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("dashboard failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(charts, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListInstruments(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var buf bytes.Buffer
	if err := outwriter.WriteInstruments(&buf, h.reg.Instruments(), &contract.Config{Output: schema.JSONOut}); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing failed: %v", err)), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (h *toolHandler) handleFormatTooltip(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = h.logger.WithContext(ctx)
	args := request.GetArguments()

	payload, ok := args["payload"].(map[string]any)
	if !ok {
		return mcp.NewToolResultError("payload must be an object"), nil
	}

	var spec schema.TooltipSpec
	if raw, ok := args["tooltip"]; ok && raw != nil {
		encoded, err := json.Marshal(raw)
		if err == nil {
			err = json.Unmarshal(encoded, &spec)
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid tooltip: %v", err)), nil
		}
	}

	content := core.FormatTooltipRaw(ctx, spec, payload)
	jsonData, _ := json.MarshalIndent(content, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
