package main

import (
	"fmt"

	"github.com/evomimic/holonengine/internal/wire"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get LOCAL_ID",
	Short: "Fetch a saved holon by LocalId",
	Long: `Get issues a QueryMethod dance resolving LOCAL_ID through the space
cache (spec.md §4.9), printing back its resolved reference.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		localID := args[0]
		external, _ := cmd.Flags().GetString("space")

		client, session, sessionPath, err := dial(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		ref := wire.HolonReferenceWire{Kind: wire.WireKindSmart, LocalID: localID, IsLocal: external == ""}
		if external != "" {
			ref.SpaceID = external
		}

		req := wire.DanceRequestWire{
			DanceName: "get_holon",
			DanceType: wire.DanceTypeWire{
				Kind:           wire.DanceTypeQueryMethod,
				NodeCollection: wire.NodeCollectionWire{Nodes: []wire.HolonReferenceWire{ref}},
			},
		}

		resp, err := runDance(client, session, sessionPath, req)
		if err != nil {
			return err
		}

		fmt.Printf("Holon: %s\n", localID)
		printResponseBody(resp.Body)
		return nil
	},
}

func init() {
	getCmd.Flags().String("space", "", "External space id (omit for a local holon)")
}
