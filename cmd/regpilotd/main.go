package main

import (
	"fmt"
	"os"

	"github.com/claritymed/regpilot/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "regpilotd",
		Short: "Regpilot daemon and CLI",
		Long:  "Regpilot daemon for running the 510(k) submission API server and managing the regulatory knowledge base",
	}

	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.SeedCmd())
	rootCmd.AddCommand(admin.KBCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
