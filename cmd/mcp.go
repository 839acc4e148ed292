package cmd

import (
	"github.com/huangsam/scorechart/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Scorechart MCP server",
	Long:  `Launch an MCP server that allows AI agents to compose questionnaire charts via standard tools.`,
	// Logs go to stderr so stdio stays reserved for the protocol.
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()
		return mcp.StartMCPServer(rootCtx, cfg, registry, st, logger)
	},
}
