package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/grussorusso/offsim/internal/config"
	"github.com/grussorusso/offsim/internal/scheduling"
	"github.com/grussorusso/offsim/internal/sim"
)

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "Prints how the generated workload is split into solver batches",
	RunE:  listBatches,
}

func listBatches(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("devices") {
		config.Set(config.MOBILE_DEVICES, devices)
	}
	// the policy is irrelevant here and greedy needs no solver runner
	config.Set(config.SCHEDULING_POLICY, "greedy")

	s, err := sim.Load()
	if err != nil {
		return err
	}
	limits := scheduling.BatchLimits{
		Size: config.GetInt(config.BATCH_SIZE, 10),
		Span: config.GetFloat(config.BATCH_TIMESPAN, 5),
	}
	if err := limits.Validate(); err != nil {
		return err
	}
	printBatches(os.Stdout, scheduling.MakeBatches(s.Tasks, limits))
	return nil
}

func printBatches(w io.Writer, batches []scheduling.Batch) {
	for i, b := range batches {
		fmt.Fprintf(w, "batch %d @ %.3f: %d tasks [", i, b.ID(), len(b))
		for j, t := range b {
			if j > 0 {
				fmt.Fprint(w, " ")
			}
			fmt.Fprintf(w, "%d", t.ID)
		}
		fmt.Fprintln(w, "]")
	}
}
