package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"a11yhub/internal/auth"
)

func newCredentialCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Inspect access and refresh credentials",
	}

	var refresh bool
	verify := &cobra.Command{
		Use:   "verify <jwt>",
		Short: "Verify a credential with JWT_SECRET and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			issuer, err := auth.NewIssuerFromConfig(cfg)
			if err != nil {
				return err
			}

			verifyFn := issuer.VerifyAccess
			if refresh {
				verifyFn = issuer.VerifyRefresh
			}
			claims, err := verifyFn(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", auth.KindOf(err), err)
			}

			out := map[string]interface{}{
				"subject":     claims.Subject,
				"email":       claims.Email,
				"type":        claims.Type,
				"version":     claims.Version,
				"roles":       claims.Roles,
				"permissions": claims.Permissions,
			}
			if claims.ExpiresAt != nil {
				out["expiresAt"] = claims.ExpiresAt.Time.UTC().Format(time.RFC3339)
			}
			return printJSON(cmd, out)
		},
	}
	verify.Flags().BoolVar(&refresh, "refresh", false, "treat the input as a refresh credential")

	cmd.AddCommand(verify)
	return cmd
}
