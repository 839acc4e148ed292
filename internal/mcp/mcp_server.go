// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/scorechart/core"
	"github.com/huangsam/scorechart/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

// NewMCPServer initializes and configures the Scorechart MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, reg *core.Registry, st contract.ObservationStore, logger zerolog.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"Scorechart Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		reg:     reg,
		store:   st,
		logger:  logger,
	}

	// --- 1. Tool: compose_chart ---
	s.AddTool(mcp.NewTool("compose_chart",
		mcp.WithDescription("Compose the chart description of one questionnaire instrument from scored observations."),
		mcp.WithString("instrument", mcp.Description("Instrument id (e.g. phq9, gad7, auditc, substance, adherence)."), mcp.Required()),
		mcp.WithArray("points", mcp.Description("Observations with a timestamp (epoch ms) or date, field scores, and optional source and meaning."), mcp.Items(map[string]any{"type": "object"})),
		mcp.WithString("patient", mcp.Description("Load the observations of this patient from the store instead of passing points.")),
		mcp.WithNumber("width", mcp.Description("Chart width in pixels.")),
	), h.handleComposeChart)

	// --- 2. Tool: patient_dashboard ---
	s.AddTool(mcp.NewTool("patient_dashboard",
		mcp.WithDescription("Compose one chart per instrument recorded for a patient."),
		mcp.WithString("patient", mcp.Description("Patient identifier in the observation store."), mcp.Required()),
	), h.handlePatientDashboard)

	// --- 3. Tool: list_instruments ---
	s.AddTool(mcp.NewTool("list_instruments",
		mcp.WithDescription("List the registered questionnaire instruments with their fields and severity cutoffs."),
	), h.handleListInstruments)

	// --- 4. Tool: format_tooltip ---
	s.AddTool(mcp.NewTool("format_tooltip",
		mcp.WithDescription("Format the tooltip strings of a hovered chart point."),
		mcp.WithObject("payload", mcp.Description("Hover payload with x, y, seriesIndex and the hovered point."), mcp.Required()),
		mcp.WithObject("tooltip", mcp.Description("The tooltip section of a composed chart description.")),
	), h.handleFormatTooltip)

	return s
}

// StartMCPServer starts the Scorechart MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, reg *core.Registry, st contract.ObservationStore, logger zerolog.Logger) error {
	s := NewMCPServer(baseCfg, reg, st, logger)
	return server.ServeStdio(s)
}
