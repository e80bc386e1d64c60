package main

import (
	"fmt"

	"github.com/evomimic/holonengine/internal/wire"
	"github.com/spf13/cobra"
)

var stageCmd = &cobra.Command{
	Use:   "stage NAME",
	Short: "Stage a new holon for create",
	Long: `Stage mints a transient holon keyed by NAME, fills in its property map
from --prop flags, and stages it for create within the transaction carried
in the on-disk session file (spec.md §3: Transient -> Staged/ForCreate).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		props, _ := cmd.Flags().GetStringSlice("prop")

		client, session, sessionPath, err := dial(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		req := wire.DanceRequestWire{
			DanceName: "stage_holon",
			DanceType: wire.DanceTypeWire{Kind: wire.DanceTypeStandalone},
			Body: wire.RequestBodyWire{
				Kind: wire.BodyHolon,
				Holon: wire.HolonWire{
					Key:        name,
					HasKey:     true,
					Properties: parseProps(props),
				},
			},
		}

		resp, err := runDance(client, session, sessionPath, req)
		if err != nil {
			return err
		}

		fmt.Printf("✓ Staged: %s\n", name)
		printResponseBody(resp.Body)
		fmt.Printf("  tx: %d\n", resp.SessionState.TxID)
		return nil
	},
}

func init() {
	stageCmd.Flags().StringSlice("prop", nil, "Property as key=value (repeatable)")
}
