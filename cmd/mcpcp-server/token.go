package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcpcp/mcpcp/pkg/auth"
)

var tokenFlags struct {
	privateKeyFile string
	subject        string
	scopes         []string
	ttl            time.Duration
	issuer         string
	audience       string
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for a caller",
	Long:  `Sign a token for the given subject with the proxy's private key. Meant for operators and local testing; production callers obtain tokens from their own issuer.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		privatePEM, err := os.ReadFile(tokenFlags.privateKeyFile)
		if err != nil {
			return fmt.Errorf("reading private key: %w", err)
		}
		signer, err := auth.NewSigner(privatePEM, tokenFlags.issuer, tokenFlags.audience)
		if err != nil {
			return err
		}
		token, err := signer.Sign(tokenFlags.subject, tokenFlags.scopes, tokenFlags.ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenFlags.privateKeyFile, "private-key", "mcp_auth/private.pem", "path to the signing key")
	tokenCmd.Flags().StringVar(&tokenFlags.subject, "subject", "", "caller identity to embed in the token")
	tokenCmd.Flags().StringSliceVar(&tokenFlags.scopes, "scopes", []string{"list_tools", "call_tools"}, "scopes to embed in the token")
	tokenCmd.Flags().DurationVar(&tokenFlags.ttl, "ttl", time.Hour, "token lifetime")
	tokenCmd.Flags().StringVar(&tokenFlags.issuer, "issuer", "https://mcpcp", "token issuer")
	tokenCmd.Flags().StringVar(&tokenFlags.audience, "audience", "mcpcp-server", "token audience")
	_ = tokenCmd.MarkFlagRequired("subject")
	rootCmd.AddCommand(tokenCmd)
}
