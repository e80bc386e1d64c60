package main

import (
	"fmt"

	"github.com/evomimic/holonengine/internal/wire"
	"github.com/spf13/cobra"
)

var danceCmd = &cobra.Command{
	Use:   "dance NAME",
	Short: "Invoke an arbitrary standalone dance by name",
	Long: `Dance issues a Standalone dance request by name, optionally carrying
--param key=value pairs as its ParameterValues body. Use this for
diagnostic or domain-specific dances (e.g. "print_database") that have no
dedicated subcommand.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		params, _ := cmd.Flags().GetStringSlice("param")

		client, session, sessionPath, err := dial(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		req := wire.DanceRequestWire{
			DanceName: name,
			DanceType: wire.DanceTypeWire{Kind: wire.DanceTypeStandalone},
		}
		if len(params) > 0 {
			req.Body = wire.RequestBodyWire{Kind: wire.BodyParameterValues, ParameterValues: parseProps(params)}
		}

		resp, err := runDance(client, session, sessionPath, req)
		if err != nil {
			return err
		}

		fmt.Printf("✓ %s: %s\n", name, resp.Description)
		printResponseBody(resp.Body)
		return nil
	},
}

func init() {
	danceCmd.Flags().StringSlice("param", nil, "Parameter as key=value (repeatable)")
}
