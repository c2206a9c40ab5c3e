package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"wifi_provisioner/internal/config"
	"wifi_provisioner/internal/logger"
	"wifi_provisioner/internal/models"
	"wifi_provisioner/internal/repository"
	"wifi_provisioner/internal/repository/db"
	"wifi_provisioner/internal/service"
)

var (
	flagSSID   string
	flagPass   string
	flagReveal bool
)

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Inspect or replace the saved network credentials",
}

var credentialsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved network name",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, closeStore, err := openCredentialStore()
		if err != nil {
			return err
		}
		defer closeStore()

		c, err := store.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("load credentials: %w", err)
		}
		if c.IsEmpty() {
			fmt.Fprintln(cmd.OutOrStdout(), "no saved credentials; the device will open the setup portal")
			return nil
		}
		pass := "(empty)"
		switch {
		case flagReveal:
			pass = c.Secret
		case c.Secret != "":
			pass = "(set)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ssid: %s\npass: %s\n", c.NetworkName, pass)
		return nil
	},
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Replace the saved credentials; takes effect at next boot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, closeStore, err := openCredentialStore()
		if err != nil {
			return err
		}
		defer closeStore()

		svc := service.NewCredentialService(store, logger.Nop())
		err = svc.Save(cmd.Context(), models.Credentials{NetworkName: flagSSID, Secret: flagPass})
		if errors.Is(err, service.ErrSSIDRequired) {
			return errors.New("--ssid is required")
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved credentials for %q\n", flagSSID)
		return nil
	},
}

func init() {
	credentialsShowCmd.Flags().BoolVar(&flagReveal, "reveal", false, "print the password too")
	credentialsSetCmd.Flags().StringVar(&flagSSID, "ssid", "", "network name")
	credentialsSetCmd.Flags().StringVar(&flagPass, "pass", "", "network password, empty for open networks")

	credentialsCmd.AddCommand(credentialsShowCmd)
	credentialsCmd.AddCommand(credentialsSetCmd)
}

// openCredentialStore opens the same database the agent uses.
func openCredentialStore() (repository.CredentialRepo, func(), error) {
	cfg, err := config.Load(viper.New(), configPath)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.InitDB(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewCredentialSQLite(sqlDB), func() { _ = sqlDB.Close() }, nil
}
