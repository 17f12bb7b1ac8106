package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importCmd = &cobra.Command{
	Use:   "import file.json [file.json ...]",
	Short: "Import extracted documents into the store",
	Long: `Loads one or more extracted document JSON files (purchase orders or
invoices) and persists them. Imported invoices become duplicate-detection
candidates for later comparisons.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().Bool("validate", true, "reject documents with no identifiers")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}

	validate, _ := cmd.Flags().GetBool("validate")
	for _, path := range args {
		doc, err := loadDocument(path)
		if err != nil {
			return err
		}
		if validate && doc.VendorName == "" && doc.PONumber == "" && doc.InvoiceID == "" {
			return eris.Errorf("document %s has no identifiers", path)
		}

		id, err := st.CreateDocument(ctx, doc)
		if err != nil {
			return err
		}
		zap.L().Info("imported document",
			zap.String("path", path),
			zap.String("doc_id", id),
			zap.Bool("is_invoice", doc.IsInvoice),
			zap.String("total_amount", doc.TotalAmount.String()),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, path)
	}
	return nil
}
