// ABOUTME: MCP server subcommand
// ABOUTME: Exposes the insight engine as tools over stdio for assistant integration
package cli

import (
	"context"

	"github.com/harperreed/pagen/handlers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:         "mcp",
	Short:       "Start the MCP server on stdio",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{needsEngine: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		current.logger.Info("starting MCP server", "version", Version)
		server := newMCPServer(handlers.NewInsightHandlers(current.engine, current.db, current.userID))
		return runMCP(cmd.Context(), server, &mcp.StdioTransport{})
	},
}

func newMCPServer(insightHandlers *handlers.InsightHandlers) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "pagen",
		Version: Version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_contact_insights",
		Description: "Classify a contact's lifecycle stage and tags from their calendar and email history, reusing the stored result when nothing changed",
	}, insightHandlers.GenerateContactInsights)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_contact_notes",
		Description: "List relationship notes recorded for a contact, newest first",
	}, insightHandlers.ListContactNotes)

	return server
}

func runMCP(ctx context.Context, server *mcp.Server, transport mcp.Transport) error {
	return server.Run(ctx, transport)
}
