package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/reconcile-cli/internal/model"
	"github.com/sells-group/reconcile-cli/internal/store"
)

var vendorsCmd = &cobra.Command{
	Use:   "vendors",
	Short: "Inspect stored vendor scores",
}

var vendorsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current score for a (vendor, persona) pair",
	RunE:  runVendorsShow,
}

var vendorsHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the append-only score history for a (vendor, persona) pair",
	RunE:  runVendorsHistory,
}

func init() {
	for _, c := range []*cobra.Command{vendorsShowCmd, vendorsHistoryCmd} {
		c.Flags().String("vendor", "", "vendor identifier (required)")
		c.Flags().String("persona", "", "scoring persona (required)")
		c.Flags().String("format", "table", "output format: table or json")
		vendorsCmd.AddCommand(c)
	}
	rootCmd.AddCommand(vendorsCmd)
}

func lookupVendorScore(cmd *cobra.Command) (*model.VendorScore, error) {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	vendorID, _ := cmd.Flags().GetString("vendor")
	persona, _ := cmd.Flags().GetString("persona")
	if vendorID == "" || persona == "" {
		return nil, eris.New("--vendor and --persona are required")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	record, err := st.GetVendorScore(ctx, vendorID, persona)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, eris.Wrapf(store.ErrNotFound, "vendor score %s/%s", vendorID, persona)
	}
	return record, nil
}

func runVendorsShow(cmd *cobra.Command, _ []string) error {
	record, err := lookupVendorScore(cmd)
	if err != nil {
		return err
	}
	return writeVendorScore(cmd, record)
}

func runVendorsHistory(cmd *cobra.Command, _ []string) error {
	record, err := lookupVendorScore(cmd)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(record.History), "encode score history")
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tSCORE\tRISK")
	for _, ev := range record.History {
		fmt.Fprintf(w, "%s\t%.2f\t%.4f\n", ev.Timestamp.Format("2006-01-02 15:04:05"), ev.Score, ev.Risk)
	}
	return w.Flush()
}
