package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"a11yhub/internal/auth"
	"a11yhub/internal/delivery"
	"a11yhub/internal/utils/base64"
)

func newTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign, verify and inspect delivery tokens",
	}

	var ttl time.Duration
	sign := &cobra.Command{
		Use:   "sign <integration-id>",
		Short: "Mint a delivery token for an integration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			window := cfg.Delivery.TokenTTL
			if ttl > 0 {
				window = ttl
			}
			signer, err := delivery.NewSigner(cfg.Delivery.TokenSecret, window, nil)
			if err != nil {
				return err
			}
			token, err := signer.Sign(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	sign.Flags().DurationVar(&ttl, "ttl", 0, "validity window, defaults to DELIVERY_TOKEN_TTL")

	verify := &cobra.Command{
		Use:   "verify <token> <integration-id>",
		Short: "Verify a delivery token against an integration",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			signer, err := delivery.NewSignerFromConfig(cfg)
			if err != nil {
				return err
			}
			claims, err := signer.Verify(args[0], args[1])
			if err != nil {
				return fmt.Errorf("%s: %w", auth.KindOf(err), err)
			}
			return printJSON(cmd, claims)
		},
	}

	inspect := &cobra.Command{
		Use:   "inspect <token>",
		Short: "Decode the claims of a delivery token without checking the signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			claims, err := decodeClaims(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]interface{}{
				"claims":   claims,
				"issuedAt": time.Unix(claims.IssuedAt, 0).UTC().Format(time.RFC3339),
				"expiry":   time.Unix(claims.Expiry, 0).UTC().Format(time.RFC3339),
				"expired":  claims.Expiry < time.Now().Unix(),
			})
		},
	}

	cmd.AddCommand(sign, verify, inspect)
	return cmd
}

func decodeClaims(token string) (delivery.Claims, error) {
	_, encoded, ok := strings.Cut(token, ".")
	if !ok {
		return delivery.Claims{}, errors.New("token has no payload part")
	}
	payload, err := base64.DecodeFromBase64(encoded)
	if err != nil {
		return delivery.Claims{}, fmt.Errorf("payload is not base64: %w", err)
	}
	var claims delivery.Claims
	if err := json.Unmarshal([]byte(payload), &claims); err != nil {
		return delivery.Claims{}, fmt.Errorf("payload is not a claims object: %w", err)
	}
	return claims, nil
}
