// Package cli contains the cobra commands of the loom binary.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/loom/internal/config"
	"github.com/example/loom/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the loom config and database",
		Long:  `Create .loom/config.json in the current directory and initialize the loom database with the required schema.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(".")
			if err != nil {
				cfg = &config.Config{Version: config.CurrentVersion}
				if err := config.SaveConfig(".", cfg); err != nil {
					return fmt.Errorf("failed to write config: %w", err)
				}
				fmt.Println("✓ Config created at .loom/config.json")
			} else {
				fmt.Println("Config already present at .loom/config.json")
			}

			if cfg.DatabasePath != "" {
				db.SetPath(cfg.DatabasePath)
			}
			dbPath, err := db.GetDBPath()
			if err != nil {
				return fmt.Errorf("failed to get database path: %w", err)
			}

			fmt.Printf("Initializing loom database at %s\n", dbPath)
			if err := db.InitSchema(); err != nil {
				return fmt.Errorf("failed to initialize schema: %w", err)
			}
			fmt.Println("✓ Database initialized successfully")
			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  loom plan import plan.json")
			fmt.Println("  loom query --plan <id> --pending")

			return nil
		},
	}
}
