package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tempohq/tempo/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "tempo-configure",
		Short: "Configuration tool for the Tempo API",
		Long:  "CLI tool for database migrations, users and rate limit settings",
	}

	rootCmd.AddCommand(commands.NewMigrateCmd())
	rootCmd.AddCommand(commands.NewRatelimitCmd())
	rootCmd.AddCommand(commands.NewUserCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
