package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Luismorlan/goodnewsbot/app_setting"
	"github.com/Luismorlan/goodnewsbot/utils/dotenv"
	. "github.com/Luismorlan/goodnewsbot/utils/log"
)

var settingsPath string

var rootCmd = &cobra.Command{
	Use:   "goodnewsbot",
	Short: "Repost good (and bad) news found on reddit and RSS feeds",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := dotenv.LoadDotEnvs(); err != nil {
			return err
		}
		// Pick up LOG_LEVEL and friends from the .env files.
		InitLogger()
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "path to the YAML app setting")
}

// loadAppSetting falls back to the defaults when no settings file is given.
func loadAppSetting() (app_setting.GoodNewsBotAppSetting, error) {
	if settingsPath == "" {
		return app_setting.DefaultAppSetting(), nil
	}
	return app_setting.ParseAppSetting(settingsPath)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		Log.Error(err)
		os.Exit(1)
	}
}
