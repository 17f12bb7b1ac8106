package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var comparisonsCmd = &cobra.Command{
	Use:   "comparisons",
	Short: "List recently saved comparisons",
	RunE:  runComparisons,
}

func init() {
	f := comparisonsCmd.Flags()
	f.Int("limit", 20, "maximum number of comparisons to list")
	f.String("format", "table", "output format: table or json")

	rootCmd.AddCommand(comparisonsCmd)
}

func runComparisons(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	cmps, err := st.ListComparisons(ctx, limit)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(cmps), "encode comparisons")
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tTOTAL\tFLAGS")
	for _, cmpRec := range cmps {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			cmpRec.ID,
			cmpRec.CreatedAt.Format("2006-01-02 15:04"),
			cmpRec.Report.TotalDiscrepancies,
			strings.Join(raisedFlags(&cmpRec.Report), "; "),
		)
	}
	return w.Flush()
}
