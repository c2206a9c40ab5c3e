// Wifi-provisioner brings a device onto a wireless network.
//
// At boot it joins the saved network or, failing that, opens the setup
// access point and serves a credential form. Once running it offers a
// control channel, firmware upload and a small status API.
//
// Usage:
//
//	wifi-provisioner [command] [flags]
//
// Running without a command is the same as "serve".
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wifi-provisioner",
	Short: "Network provisioning and control agent",
	Long: `Joins the saved wireless network at boot or opens the setup portal,
then serves the control channel, firmware upload and status API.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default configs/config.yml or /etc/wifi-provisioner/config.yml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(credentialsCmd)
}
