// Package cli implements relayctl, a small operator tool that speaks
// the relay's signaling protocol: probe engine capabilities, sit in a
// room watching events, or send a chat message.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	flagServer string
	flagToken  string
)

var rootCmd = &cobra.Command{
	Use:   "relayctl",
	Short: "Operator tool for the media relay signaling server",
	Long: `relayctl connects to a running relay server over its websocket
signaling endpoint. It is meant for smoke tests and operations, not as
a media client: it never negotiates actual transports.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagServer, "server", "s", "localhost:8080", "relay server host:port or ws:// URL")
	rootCmd.PersistentFlags().StringVarP(&flagToken, "token", "t", "dev-token", "auth token presented at connect time")

	rootCmd.AddCommand(capsCmd)
	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(chatCmd)
}
