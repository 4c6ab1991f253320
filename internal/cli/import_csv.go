package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	importSync        bool
	importParallelism int
)

var importCSVCmd = &cobra.Command{
	Use:   "import-csv <file>",
	Short: "Queue or run lawn engine requests from a CSV file",
	Long: `Reads rows with columns lawn_id, start_date, user_input and subscription_year.
By default each valid row is queued for the worker pool. With --sync the rows are run
in this process and the command waits for them.`,
	Args: cobra.ExactArgs(1),
	RunE: runImportCSV,
}

func init() {
	importCSVCmd.Flags().BoolVar(&importSync, "sync", false, "run rows in-process instead of queueing them")
	importCSVCmd.Flags().IntVar(&importParallelism, "parallelism", 4, "lawns processed concurrently with --sync")
}

func runImportCSV(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	svc := a.svc.LawnEngineService
	ctx := cmd.Context()
	if importSync {
		res, err := svc.RunCSV(ctx, f, importParallelism)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	}
	res, err := svc.EnqueueCSV(ctx, f)
	if err != nil {
		return err
	}
	return printJSON(cmd, res)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
