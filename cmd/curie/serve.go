package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"alfredoptarigan/agentic-curie/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, chat endpoint and MCP endpoint",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := setup(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer c.Close()

		return app.Serve(cmd.Context(), c)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "", "port to listen on (default from PORT or 3000)")
	viper.BindPFlag("port", serveCmd.Flags().Lookup("port")) //nolint:errcheck
}
