package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/reconcile-cli/internal/model"
	"github.com/sells-group/reconcile-cli/internal/rules"
)

var vendorScoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Update a vendor's decay-weighted trust score",
	Long: `Folds a discrepancy vector into the stored score for a (vendor, persona)
pair. The first update creates the record; later updates decay the prior
score by e^(-lambda*days) and average it with the fresh value.

Examples:
  # Score from an explicit flag vector
  score --vendor acme --persona compliance --vector 1,0,0,1,1

  # Score from a saved comparison's report
  score --vendor acme --from-comparison 4f0c...`,
	RunE: runVendorScore,
}

func init() {
	f := vendorScoreCmd.Flags()
	f.String("vendor", "", "vendor identifier (required)")
	f.String("persona", "", "scoring persona (unknown names fall back to the default)")
	f.String("vector", "", "comma-separated 0/1 discrepancy vector")
	f.String("from-comparison", "", "build the vector from a saved comparison id")
	f.String("format", "table", "output format: table or json")

	rootCmd.AddCommand(vendorScoreCmd)
}

func runVendorScore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	vendorID, _ := cmd.Flags().GetString("vendor")
	if vendorID == "" {
		return eris.New("--vendor is required")
	}
	persona, _ := cmd.Flags().GetString("persona")

	rawVector, _ := cmd.Flags().GetString("vector")
	fromComparison, _ := cmd.Flags().GetString("from-comparison")
	if (rawVector == "") == (fromComparison == "") {
		return eris.New("exactly one of --vector and --from-comparison is required")
	}

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	var vector []int
	if rawVector != "" {
		vector, err = parseVector(rawVector)
		if err != nil {
			return err
		}
	} else {
		comparison, err := st.GetComparison(ctx, fromComparison)
		if err != nil {
			return err
		}
		vector = rules.Vector(&comparison.Report)
	}

	sc, err := initScorer(st)
	if err != nil {
		return err
	}

	record, err := sc.Score(ctx, vendorID, persona, vector)
	if err != nil {
		return err
	}

	return writeVendorScore(cmd, record)
}

func parseVector(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	vector := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, eris.Wrapf(err, "parse vector element %q", p)
		}
		vector = append(vector, n)
	}
	return vector, nil
}

func writeVendorScore(cmd *cobra.Command, record *model.VendorScore) error {
	format, _ := cmd.Flags().GetString("format")
	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(record), "encode vendor score")
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "vendor\t%s\n", record.VendorID)
	fmt.Fprintf(w, "persona\t%s\n", record.Persona)
	fmt.Fprintf(w, "score\t%.2f\n", record.Score)
	fmt.Fprintf(w, "aggregated risk\t%.4f\n", record.AggregatedRisk)
	if record.DecayWeight > 0 {
		fmt.Fprintf(w, "decay weight\t%.4f\n", record.DecayWeight)
	}
	fmt.Fprintf(w, "last updated\t%s\n", record.LastUpdated.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "history entries\t%d\n", len(record.History))
	return w.Flush()
}
