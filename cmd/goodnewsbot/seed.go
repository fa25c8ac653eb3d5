package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Luismorlan/goodnewsbot/store"
	"github.com/Luismorlan/goodnewsbot/utils"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the sources, channels and repost categories of the app setting",
	RunE: func(cmd *cobra.Command, args []string) error {
		if settingsPath == "" {
			return errors.New("seed needs --settings")
		}
		setting, err := loadAppSetting()
		if err != nil {
			return err
		}
		db, err := utils.GetDBConnection()
		if err != nil {
			return err
		}
		if err := store.Migrate(db); err != nil {
			return err
		}
		itemStore := store.NewItemStore(db, setting.MAX_DESCRIPTION_LENGTH)
		if err := itemStore.SeedReferenceData(context.Background(), setting.REFERENCE_DATA); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "reference data seeded")
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := utils.GetDBConnection()
		if err != nil {
			return err
		}
		if err := store.Migrate(db); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "database migrated")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(migrateCmd)
}
