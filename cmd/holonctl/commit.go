package main

import (
	"fmt"
	"os"

	"github.com/evomimic/holonengine/internal/wire"
	"github.com/spf13/cobra"
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Commit the current session's staged holons",
	Long: `Commit runs the commit pipeline over every holon staged in the
transaction carried by the on-disk session file, and clears that session
once the engine reports success (spec.md §4.8).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, session, sessionPath, err := dial(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		if session == nil {
			return fmt.Errorf("no staged session found at %s; run 'holonctl stage' first", sessionPath)
		}

		req := wire.DanceRequestWire{
			DanceName: "commit",
			DanceType: wire.DanceTypeWire{Kind: wire.DanceTypeStandalone},
		}

		resp, err := runDance(client, session, sessionPath, req)
		if err != nil {
			return err
		}
		if err := os.Remove(sessionPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("clear session file: %w", err)
		}

		fmt.Println("✓ Commit complete")
		printResponseBody(resp.Body)
		return nil
	},
}
