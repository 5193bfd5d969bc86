package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mstgnz/medusa-hyperswitch/infra/config"
	"github.com/mstgnz/medusa-hyperswitch/infra/storage"
	"github.com/mstgnz/medusa-hyperswitch/provider/hyperswitch"
	"github.com/spf13/cobra"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage the persisted provider credentials",
	}

	cmd.PersistentFlags().String("driver", "", "Database driver (sqlite3, postgres); defaults to DB_DRIVER")
	cmd.PersistentFlags().String("db", "", "SQLite path or Postgres URL; defaults to DB_PATH or DATABASE_URL")

	cmd.AddCommand(settingsSetCmd())
	cmd.AddCommand(settingsShowCmd())
	return cmd
}

func settingsSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Validate and store new credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKey, _ := cmd.Flags().GetString("api-key")
			webhookKey, _ := cmd.Flags().GetString("webhook-key")

			settings := config.PersistedSettings{APIKey: apiKey, WebhookResponseHash: webhookKey}
			if err := config.App().Validator.Struct(settings); err != nil {
				return fmt.Errorf("invalid settings: %w", err)
			}
			if _, err := hyperswitch.NewHolder(config.LoadProviderOptions(), &settings); err != nil {
				return fmt.Errorf("invalid settings: %w", err)
			}

			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			blob, err := settings.Encode()
			if err != nil {
				return err
			}
			if err := store.SaveProviderSettings(cmd.Context(), config.ProviderID, blob); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Updated successfully!")
			return nil
		},
	}

	cmd.Flags().String("api-key", "", "Hyperswitch API key")
	cmd.Flags().String("webhook-key", "", "Webhook response hash key")
	_ = cmd.MarkFlagRequired("api-key")
	_ = cmd.MarkFlagRequired("webhook-key")
	return cmd
}

func settingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored credentials masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			raw, err := store.LoadProviderSettings(cmd.Context(), config.ProviderID)
			if errors.Is(err, storage.ErrSettingsNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "No settings stored")
				return nil
			}
			if err != nil {
				return err
			}

			settings, err := config.ParsePersistedSettings(raw)
			if err != nil {
				return err
			}
			if settings == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No settings stored")
				return nil
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(settings.Masked())
		},
	}
}

func openStore(cmd *cobra.Command) (*storage.Store, error) {
	cfg := *config.GetAppConfig()

	if driver, _ := cmd.Flags().GetString("driver"); driver != "" {
		cfg.DBDriver = driver
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		if cfg.DBDriver == "postgres" {
			cfg.DatabaseURL = db
		} else {
			cfg.DBPath = db
		}
	}

	store, err := storage.Open(cmd.Context(), &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return store, nil
}
