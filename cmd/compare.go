package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/reconcile-cli/internal/model"
	"github.com/sells-group/reconcile-cli/internal/rules"
)

var compareCmd = &cobra.Command{
	Use:   "compare [po.json invoice.json]",
	Short: "Evaluate PO/invoice pairs for discrepancies",
	Long: `Runs all twelve discrepancy rule categories over a purchase-order/invoice
pair and reports the raised flags, per-category scores, and total.

Examples:
  # Compare one pair from files
  compare po.json invoice.json

  # Include candidate invoices for duplicate detection
  compare po.json invoice.json --others inv1.json,inv2.json

  # Persist the documents and the resulting report
  compare po.json invoice.json --save

  # Evaluate every <stem>.po.json / <stem>.invoice.json pair in a directory
  compare --batch ./pairs`,
	RunE: runCompare,
}

func init() {
	f := compareCmd.Flags()
	f.String("others", "", "comma-separated invoice files to check for duplicates")
	f.Bool("save", false, "persist documents and comparison to the store")
	f.String("batch", "", "directory of <stem>.po.json / <stem>.invoice.json pairs")
	f.Int("workers", 0, "parallel workers for batch mode (0=use config)")
	f.String("format", "table", "output format: table or json")
	f.String("output", "", "output file path (default: stdout)")

	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	batchDir, _ := cmd.Flags().GetString("batch")
	if batchDir != "" {
		return runCompareBatch(ctx, cmd, batchDir)
	}

	if len(args) != 2 {
		return eris.New("compare needs exactly two file arguments (or --batch)")
	}

	po, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	inv, err := loadDocument(args[1])
	if err != nil {
		return err
	}

	var others []model.Document
	if list, _ := cmd.Flags().GetString("others"); list != "" {
		for _, path := range strings.Split(list, ",") {
			doc, err := loadDocument(strings.TrimSpace(path))
			if err != nil {
				return err
			}
			others = append(others, *doc)
		}
	}

	report := rules.Evaluate(po, inv, others)

	if save, _ := cmd.Flags().GetBool("save"); save {
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		poID, err := st.CreateDocument(ctx, po)
		if err != nil {
			return err
		}
		invID, err := st.CreateDocument(ctx, inv)
		if err != nil {
			return err
		}
		cmpID, err := st.SaveComparison(ctx, &model.Comparison{
			PODocID:      poID,
			InvoiceDocID: invID,
			Report:       *report,
		})
		if err != nil {
			return err
		}
		zap.L().Info("saved comparison",
			zap.String("comparison_id", cmpID),
			zap.String("po_doc_id", poID),
			zap.String("invoice_doc_id", invID),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "comparison id: %s\n", cmpID)
	}

	return writeReport(cmd, report)
}

func runCompareBatch(ctx context.Context, cmd *cobra.Command, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return eris.Wrapf(err, "read batch dir %s", dir)
	}

	var stems []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".po.json"); ok {
			stems = append(stems, name)
		}
	}
	sort.Strings(stems)
	if len(stems) == 0 {
		return eris.Errorf("no *.po.json files in %s", dir)
	}

	pairs := make([]rules.Pair, 0, len(stems))
	for _, stem := range stems {
		po, err := loadDocument(filepath.Join(dir, stem+".po.json"))
		if err != nil {
			return err
		}
		inv, err := loadDocument(filepath.Join(dir, stem+".invoice.json"))
		if err != nil {
			return err
		}
		pairs = append(pairs, rules.Pair{PO: po, Invoice: inv})
	}

	workers, _ := cmd.Flags().GetInt("workers")
	if workers <= 0 {
		workers = cfg.Compare.Workers
	}

	reports, err := rules.EvaluatePairs(ctx, pairs, workers)
	if err != nil {
		return err
	}

	out, closeOut, err := outputWriter(cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	format, _ := cmd.Flags().GetString("format")
	if format == "json" {
		byStem := make(map[string]*model.DiscrepancyReport, len(stems))
		for i, stem := range stems {
			byStem[stem] = reports[i]
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(byStem), "encode batch reports")
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PAIR\tTOTAL\tFLAGS")
	for i, stem := range stems {
		fmt.Fprintf(w, "%s\t%d\t%s\n", stem, reports[i].TotalDiscrepancies,
			strings.Join(raisedFlags(reports[i]), "; "))
	}
	return w.Flush()
}

func writeReport(cmd *cobra.Command, report *model.DiscrepancyReport) error {
	out, closeOut, err := outputWriter(cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	format, _ := cmd.Flags().GetString("format")
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(report), "encode report")
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "total discrepancies\t%d\n", report.TotalDiscrepancies)
	for _, category := range rules.Categories() {
		if n, ok := report.CategoryScores[category]; ok && n > 0 {
			fmt.Fprintf(w, "%s\t%d\n", category, n)
		}
	}
	for _, flag := range raisedFlags(report) {
		fmt.Fprintf(w, "  %s\n", flag)
	}
	return w.Flush()
}

// raisedFlags lists the set flags in stable vector order.
func raisedFlags(report *model.DiscrepancyReport) []string {
	var raised []string
	for _, name := range rules.FlagOrder() {
		if report.DetailedFlags[name] > 0 {
			raised = append(raised, name)
		}
	}
	return raised
}

// outputWriter resolves --output; stdout is never closed.
func outputWriter(cmd *cobra.Command) (io.Writer, func() error, error) {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "create output %s", path)
	}
	return f, f.Close, nil
}
