package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "vrcbridge",
	Short: "vrcbridge is a proxy gateway to the VRChat API",
	Long: `A proxy gateway to the VRChat API. It authenticates once as a service
account (including the interactive two-factor handshake), caches the session
token, and re-exposes a curated subset of the upstream API to internal
clients.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
