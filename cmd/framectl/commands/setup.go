package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tauraamui/framerelay/pkg/config"
	"github.com/tauraamui/framerelay/pkg/configdef"
	"github.com/tauraamui/framerelay/pkg/database"
	"github.com/tauraamui/framerelay/pkg/log"
)

var (
	setupConfig   = func() error { return config.DefaultCreator().Create() }
	setupDatabase = func() error { return database.Setup(configuredIndexDB()) }
	destroyDB     = func() error { return database.Destroy(configuredIndexDB()) }
)

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Write the default config file and create the saved frame index",
		Example: `  # Create config and index in their default locations
  framectl setup

  # Create them somewhere else
  FRAMERELAY_CONFIG=./config.json FRAMERELAY_DB=./frames.db framectl setup`,
		Args: cobra.NoArgs,
		RunE: runSetup,
	}
}

func runSetup(cmd *cobra.Command, args []string) error {
	log.Info("Setting up framerelay...")

	if err := setupConfig(); err != nil {
		if !errors.Is(err, configdef.ErrConfigAlreadyExists) {
			return err
		}
		log.Warn(err.Error())
	}

	if err := setupDatabase(); err != nil {
		if !errors.Is(err, database.ErrDBAlreadyExists) {
			return err
		}
		log.Warn(err.Error())
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Setup successful...")
	return nil
}

// configuredIndexDB is the config's index_db, empty when unset or the
// config cannot be resolved.
func configuredIndexDB() string {
	values, err := config.DefaultResolver().Resolve()
	if err != nil {
		log.Warn("Unable to resolve config: %v", err)
		return ""
	}
	return values.Subscriber.IndexDB
}

func newRemoveSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-setup",
		Short: "Delete the saved frame index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Info("Removing framerelay setup...")
			if err := destroyDB(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Removing setup successful...")
			return nil
		},
	}
}
