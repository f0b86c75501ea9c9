package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"lg/glucose-api/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and print it with secrets masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "API_ADDR=%s\n", cfg.APIAddr)
		fmt.Fprintf(out, "DB_DRIVER=%s\n", cfg.DBDriver)
		fmt.Fprintf(out, "DB_URL=%s\n", config.MaskSecret(cfg.DBURL))
		fmt.Fprintf(out, "SQLITE_PATH=%s\n", cfg.SQLitePath)
		fmt.Fprintf(out, "DEFAULT_TIMEZONE=%s\n", cfg.DefaultTimezone)
		fmt.Fprintf(out, "LOG_LEVEL=%s\n", cfg.LogLevel)
		fmt.Fprintf(out, "LOG_FORMAT=%s\n", cfg.LogFormat)
		fmt.Fprintf(out, "GIN_MODE=%s\n", cfg.GinMode)
		fmt.Fprintf(out, "MIGRATIONS_DIR=%s\n", cfg.MigrationsDir)

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration is invalid:\n%w", err)
		}
		fmt.Fprintln(out, "configuration is valid")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}
