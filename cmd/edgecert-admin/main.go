package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/go-acme/lego/v4/certcrypto"
	"github.com/spf13/cobra"

	"github.com/stackway/edgecert/core/ca"
	"github.com/stackway/edgecert/core/certstore"
	"github.com/stackway/edgecert/core/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "edgecert-admin",
		Short:         "Operator tool for certificate orders and local material",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		listCmd(),
		getCmd(),
		statusCmd(),
		cancelCmd(),
		revokeCmd(),
		expiryCmd(),
	)
	return root
}

// newAdminClient builds the CA admin client from the environment.
func newAdminClient() (ca.AdminClient, error) {
	var cfg ca.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	client, err := ca.NewAPIClient(cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func listCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List certificate orders at the CA",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newAdminClient()
			if err != nil {
				return err
			}

			certs, err := client.List(cmd.Context(), status)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCOMMON NAME\tSTATUS\tEXPIRES")
			for _, c := range certs {
				expires := "-"
				if !c.Expires.IsZero() {
					expires = c.Expires.Format("2006-01-02")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Domain, c.Status, expires)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by order status (draft, pending_validation, issued, ...)")
	return cmd
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <certificate-id>",
		Short: "Show one certificate order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAdminClient()
			if err != nil {
				return err
			}

			info, err := client.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:          %s\n", info.ID)
			fmt.Fprintf(out, "Common name: %s\n", info.Domain)
			fmt.Fprintf(out, "Status:      %s\n", info.Status)
			if !info.Expires.IsZero() {
				fmt.Fprintf(out, "Expires:     %s (%d days)\n",
					info.Expires.Format(time.RFC3339), daysUntil(info.Expires))
			}
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <certificate-id>",
		Short: "Print the status of a certificate order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAdminClient()
			if err != nil {
				return err
			}

			status, err := client.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), status)
			return nil
		},
	}
}

func cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <certificate-id>",
		Short: "Cancel a draft or pending certificate order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAdminClient()
			if err != nil {
				return err
			}

			if err := client.Cancel(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cancelled", args[0])
			return nil
		},
	}
}

func revokeCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "revoke <certificate-id>",
		Short: "Revoke an issued certificate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAdminClient()
			if err != nil {
				return err
			}

			if err := client.Revoke(cmd.Context(), args[0], reason); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "revoked", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "revocation reason recorded at the CA")
	return cmd
}

func expiryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expiry",
		Short: "Inspect the locally stored certificate's expiry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg certstore.Config
			if err := config.Load(&cfg); err != nil {
				return err
			}
			store, err := certstore.New(cfg)
			if err != nil {
				return err
			}

			pemBytes, err := store.Load(certstore.FileCertificate)
			if err != nil {
				return err
			}
			cert, err := certcrypto.ParsePEMCertificate(pemBytes)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Subject:    %s\n", cert.Subject.CommonName)
			fmt.Fprintf(out, "Not before: %s\n", cert.NotBefore.Format(time.RFC3339))
			fmt.Fprintf(out, "Not after:  %s\n", cert.NotAfter.Format(time.RFC3339))
			fmt.Fprintf(out, "Days left:  %d\n", daysUntil(cert.NotAfter))
			return nil
		},
	}
}

func daysUntil(t time.Time) int {
	return int(time.Until(t).Hours() / 24)
}
