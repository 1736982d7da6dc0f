package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"alfredoptarigan/agentic-curie/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server exposing merge_documents and resume_match",
	Long: `Run the Model Context Protocol server.

By default the server speaks JSON-RPC over stdio and also offers add_file,
which stores a local file and returns its id for the other tools.

Use --port to serve the streamable HTTP transport instead. The same endpoint
is mounted at /mcp by "curie serve".`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	c, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer c.Close()

	c.Janitor.Start(ctx)

	server, err := mcpserver.NewServer(c.Toolbox, c.Files, mcpserver.Options{AllowLocalFiles: port == 0}, c.Logger)
	if err != nil {
		return err
	}

	if port > 0 {
		return server.RunHTTP(ctx, fmt.Sprintf(":%d", port))
	}
	return server.Run(ctx)
}
