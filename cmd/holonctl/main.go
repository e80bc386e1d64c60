// Command holonctl is the CLI front end for a running holon engine process,
// grounded on the teacher's cmd/warren/main.go (root cobra command, global
// persistent flags, cobra.OnInitialize(initLogging)) and apply.go (the
// "connect, issue request, print result" per-subcommand shape).
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/evomimic/holonengine/internal/dancetransport"
	"github.com/evomimic/holonengine/internal/herrors"
	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/holonlog"
	"github.com/evomimic/holonengine/internal/wire"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "holonctl",
	Short: "holonctl drives a running holon engine over the dance transport",
	Long: `holonctl is a thin client for the holon engine's dance request/response
bus. It dials a running engine's dance transport address, stages, commits,
fetches, and invokes arbitrary dances, and keeps the resulting transaction
session on disk between invocations so a multi-step workflow (stage, stage,
commit) can be driven one command at a time.`,
}

func init() {
	rootCmd.PersistentFlags().String("addr", "127.0.0.1:8080", "Dance transport address")
	rootCmd.PersistentFlags().String("session-file", "./holonctl-session.json", "Path to the on-disk transaction session state")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(danceCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	holonlog.Init(holonlog.Config{Level: holonlog.Level(level)})
}

// dial connects to the engine named by --addr and loads the on-disk session,
// the pair of things every subcommand needs before it can issue a dance.
func dial(cmd *cobra.Command) (*dancetransport.Client, *wire.SessionStateWire, string, error) {
	addr, _ := cmd.Flags().GetString("addr")
	sessionPath, _ := cmd.Flags().GetString("session-file")

	client, err := dancetransport.Dial(addr)
	if err != nil {
		return nil, nil, "", fmt.Errorf("connect to %s: %w", addr, err)
	}
	session, err := loadSession(sessionPath)
	if err != nil {
		client.Close()
		return nil, nil, "", err
	}
	return client, session, sessionPath, nil
}

// runDance issues req against client, persists the resulting session state
// to sessionPath, and fails if the engine answered with a non-2xx status.
func runDance(client *dancetransport.Client, session *wire.SessionStateWire, sessionPath string, req wire.DanceRequestWire) (*wire.DanceResponseWire, error) {
	req.SessionState = session
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.Dance(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := saveSession(sessionPath, resp.SessionState); err != nil {
		return nil, err
	}
	if resp.StatusCode >= int(herrors.StatusBadRequest) {
		return resp, fmt.Errorf("dance %q failed (%d): %s", req.DanceName, resp.StatusCode, resp.Description)
	}
	return resp, nil
}

// parseProps turns repeated "key=value" flag values into a BaseValueWire
// property map of string values, the CLI-facing analogue of the teacher's
// splitEnv helper in cmd/warren/main.go.
func parseProps(pairs []string) map[string]wire.BaseValueWire {
	props := make(map[string]wire.BaseValueWire, len(pairs))
	for _, pair := range pairs {
		idx := strings.Index(pair, "=")
		if idx == -1 {
			continue
		}
		key, value := pair[:idx], pair[idx+1:]
		props[key] = wire.BaseValueWire{Kind: holon.BaseValueString, Str: value}
	}
	return props
}

func printResponseBody(body wire.RequestBodyWire) {
	switch body.Kind {
	case wire.BodyHolonID:
		ref := body.HolonID
		fmt.Printf("  holon: %s (space=%s local=%v)\n", ref.LocalID, ref.SpaceID, ref.IsLocal)
	case wire.BodyTargetHolons:
		for _, ref := range body.TargetHolons.Targets {
			switch ref.Kind {
			case wire.WireKindStaged:
				fmt.Printf("  staged: tx=%d temp_id=%s\n", ref.TxID, ref.TemporaryID)
			case wire.WireKindTransient:
				fmt.Printf("  transient: tx=%d temp_id=%s\n", ref.TxID, ref.TemporaryID)
			default:
				fmt.Printf("  holon: %s\n", ref.LocalID)
			}
		}
	case wire.BodyParameterValues:
		for name, v := range body.ParameterValues {
			fmt.Printf("  %s = %s\n", name, formatBaseValueWire(v))
		}
	}
}

func formatBaseValueWire(v wire.BaseValueWire) string {
	switch v.Kind {
	case holon.BaseValueInteger:
		return fmt.Sprintf("%d", v.Int)
	case holon.BaseValueBoolean:
		return fmt.Sprintf("%t", v.Bool)
	case holon.BaseValueBytes:
		return fmt.Sprintf("%x", v.Bytes)
	case holon.BaseValueEnum:
		return v.Enum
	case holon.BaseValueArray:
		parts := make([]string, len(v.Array))
		for i, item := range v.Array {
			parts[i] = formatBaseValueWire(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return v.Str
	}
}
