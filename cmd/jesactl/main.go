package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var timeout time.Duration

// rootCmd is the operator CLI for the registration service.
var rootCmd = &cobra.Command{
	Use:   "jesactl",
	Short: "Operator tools for JESA awards registration",
	Long: `Inspect the registration lookup tables and stored applicants.

Applicant commands read MongoDB using the same MONGO_* environment
variables as the server (a .env file is honoured).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")

	applicantsCmd.AddCommand(applicantsListCmd)
	applicantsCmd.AddCommand(applicantsShowCmd)
	adminCmd.AddCommand(adminHashTokenCmd)

	rootCmd.AddCommand(lookupsCmd)
	rootCmd.AddCommand(applicantsCmd)
	rootCmd.AddCommand(adminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
