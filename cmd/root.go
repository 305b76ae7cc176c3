package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/calorietrack/calorietrack-go/cmd/serve"
	"github.com/calorietrack/calorietrack-go/cmd/stats"
	"github.com/calorietrack/calorietrack-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "calorietrack",
		Short: "CalorieTrack-Go CLI",
		Long:  "Food prediction event logging, aggregation and live streaming service",
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		serve.Command(settings),
		stats.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Parse the command line flags
		if err := cmd.Flags().Parse(args); err != nil {
			return err
		}

		// Command-line arguments take precedence over file configuration
		settings.Debug = viper.GetBool("debug")
		if port := viper.GetString("webserver.port"); port != "" {
			settings.WebServer.Port = port
		}
		if path := viper.GetString("output.sqlite.path"); path != "" {
			settings.Output.SQLite.Path = path
		}

		return conf.ValidateSettings(settings)
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&settings.WebServer.Port, "port", "p", viper.GetString("webserver.port"), "Port for the HTTP server")
	rootCmd.PersistentFlags().StringVar(&settings.Output.SQLite.Path, "db", viper.GetString("output.sqlite.path"), "Path to the SQLite database file")

	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("error binding debug flag: %w", err)
	}
	if err := viper.BindPFlag("webserver.port", rootCmd.PersistentFlags().Lookup("port")); err != nil {
		return fmt.Errorf("error binding port flag: %w", err)
	}
	if err := viper.BindPFlag("output.sqlite.path", rootCmd.PersistentFlags().Lookup("db")); err != nil {
		return fmt.Errorf("error binding db flag: %w", err)
	}

	return nil
}
