package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"jesa/pkg/platform/middleware/admin"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Admin endpoint helpers",
}

// adminHashTokenCmd prints the ADMIN_TOKEN_HASH value for a token.
var adminHashTokenCmd = &cobra.Command{
	Use:   "hash-token <token>",
	Short: "Print the bcrypt hash to set as ADMIN_TOKEN_HASH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args[0]) < 12 {
			return errors.New("token must be at least 12 characters")
		}
		hash, err := admin.HashToken(args[0])
		if err != nil {
			return fmt.Errorf("hash token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}
