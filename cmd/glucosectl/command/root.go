package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"lg/glucose-api/internal/bootstrap"
	"lg/glucose-api/internal/config"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:           "glucosectl",
	Short:         "Inspect glucose readings and analytics",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Overwrite zap's log level
		return os.Setenv("LOG_LEVEL", logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "v", "error", "Log Level")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run builds the App from the environment, hands it to f and closes it afterwards.
func run(ctx context.Context, f func(ctx context.Context, app *bootstrap.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	return f(ctx, app)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func requireUser(cmd *cobra.Command) {
	cmd.Flags().IntVar(&userID, "user-id", 0, "User to report on")
	_ = cmd.MarkFlagRequired("user-id")
}

var userID int
