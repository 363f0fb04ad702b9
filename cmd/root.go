package main

import (
	"os"

	"github.com/spf13/cobra"
	pkglog "github.com/weiawesome/signal-relay/pkg/log"
)

var rootCmd = &cobra.Command{
	Use:   "signal-relay",
	Short: "WebRTC signaling relay for one-to-many live streams",
	Long: `signal-relay pairs a streamer with any number of viewers over WebSocket and
relays their WebRTC offers, answers and ICE candidates. Media never passes
through the relay.`,
}

// Execute runs the root command. It is called by main.main.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		l := pkglog.L()
		l.Error().Err(err).Msg("signal-relay exited with error")
		os.Exit(1)
	}
}
