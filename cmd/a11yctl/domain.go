package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"a11yhub/internal/delivery"
)

func newDomainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "domain",
		Short: "Evaluate origin rules",
	}

	var allowed []string
	check := &cobra.Command{
		Use:   "check <primary-domain> <origin>",
		Short: "Report whether origin may load scripts for an integration",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, entry := range allowed {
				if !delivery.ValidPattern(entry) {
					return fmt.Errorf("invalid allowed domain %q", entry)
				}
			}
			match := delivery.MatchDomain(args[0], allowed, args[1])
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\n", match); err != nil {
				return err
			}
			if !match.Allowed() {
				return fmt.Errorf("origin %s is not authorized", args[1])
			}
			return nil
		},
	}
	check.Flags().StringSliceVar(&allowed, "allow", nil, "additional allowed domains, wildcards as *.example.com")

	cmd.AddCommand(check)
	return cmd
}
