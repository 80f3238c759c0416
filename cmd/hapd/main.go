// Command hapd is a runnable HAP accessory server: it accepts TCP
// connections, runs one Secure Channel per connection, serves HTTP
// over each channel's plaintext Bridge, and advertises itself over
// Bonjour/mDNS. It has no pair-verify implementation of its own (out
// of scope per spec.md §1), so connections stay in passthrough mode
// until something external feeds their PendingSession — which is
// exactly what the pair-test subcommand demonstrates in isolation.
package main

import (
	"log"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hapd",
	Short: "A HAP accessory server built around the Secure Channel",
}

func main() {
	rootCmd.AddCommand(serveCmd, pairTestCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
