package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var rootCmd = &cobra.Command{
	Use:   "wifictl",
	Short: "Control the transmit power of a running wifisim simulation.",
	Long: `wifictl attaches to the shared-memory exchange channel created ` +
		`by wifisim and answers every station observation with a transmit ` +
		`power decision.`,
}

// Execute runs the command and exits through atexit so registered
// cleanups fire.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}
}

func init() {
	// Environment files configure the optional MySQL recording backend.
	_ = godotenv.Load()
}
