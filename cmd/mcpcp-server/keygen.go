package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mcpcp/mcpcp/pkg/auth"
)

var keygenDir string

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate the RSA keypair used to sign and verify tokens",
	RunE: func(cmd *cobra.Command, _ []string) error {
		privatePEM, publicPEM, err := auth.GenerateKeyPair()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(keygenDir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", keygenDir, err)
		}

		privatePath := filepath.Join(keygenDir, "private.pem")
		if err := os.WriteFile(privatePath, privatePEM, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", privatePath, err)
		}
		publicPath := filepath.Join(keygenDir, "public.pem")
		if err := os.WriteFile(publicPath, publicPEM, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", publicPath, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\n", privatePath, publicPath)
		return nil
	},
}

func init() {
	keygenCmd.Flags().StringVar(&keygenDir, "dir", "mcp_auth", "directory to write the PEM files into")
	rootCmd.AddCommand(keygenCmd)
}
