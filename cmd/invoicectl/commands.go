package main

import (
	"fmt"
	"os"

	"orcamento_backend/platform/db"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Example: `  invoicectl migrate
  invoicectl migrate --status`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if status, _ := cmd.Flags().GetBool("status"); status {
			return db.MigrationStatus(ctx, e.pool)
		}
		if err := db.RunMigrations(ctx, e.pool); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Expire open invoices past their validity date",
	Long: `Moves every DRAFT or READY invoice whose proposal validity date has
passed to EXPIRED. Safe to run repeatedly and alongside the scheduler.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		svc, err := e.invoiceService()
		if err != nil {
			return err
		}
		expired, err := svc.ExpireOverdue(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d invoice(s) expired\n", expired)
		return nil
	},
}

var pdfCmd = &cobra.Command{
	Use:   "pdf <invoice-id>",
	Short: "Render the PDF of an invoice to a file",
	Example: `  invoicectl pdf 3f1c2a9e-8d1b-4c55-9a57-0f3d1e2b4c6d
  invoicectl pdf 3f1c2a9e-8d1b-4c55-9a57-0f3d1e2b4c6d --out /tmp/orcamento.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid invoice ID %q", args[0])
		}

		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		svc, err := e.invoiceService()
		if err != nil {
			return err
		}
		doc, err := svc.RenderPDF(ctx, id)
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = doc.Filename
		}
		if err := os.WriteFile(out, doc.Content, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s written (%d bytes)\n", out, len(doc.Content))
		return nil
	},
}

var nextCodeCmd = &cobra.Command{
	Use:   "next-code",
	Short: "Print the code the next invoice will receive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		svc, err := e.invoiceService()
		if err != nil {
			return err
		}
		code, err := svc.PreviewNextCode(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), code)
		return nil
	},
}

func init() {
	migrateCmd.Flags().Bool("status", false, "Print migration status instead of applying")
	pdfCmd.Flags().StringP("out", "o", "", "Output file (default orcamento-<code>.pdf)")
}
