package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/grussorusso/offsim/internal/api"
	"github.com/grussorusso/offsim/internal/config"
	"github.com/grussorusso/offsim/internal/logging"
	"github.com/grussorusso/offsim/internal/metrics"
	"github.com/grussorusso/offsim/internal/sim"
)

var policy string
var devices, statusPort int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs a simulation",
	RunE:  runSimulation,
}

// applyOverrides copies the flags the user set into the configuration.
func applyOverrides(cmd *cobra.Command) {
	if cmd.Flags().Changed("policy") {
		config.Set(config.SCHEDULING_POLICY, policy)
	}
	if cmd.Flags().Changed("devices") {
		config.Set(config.MOBILE_DEVICES, devices)
	}
	if cmd.Flags().Changed("status-port") {
		config.Set(config.API_PORT, statusPort)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	applyOverrides(cmd)

	metrics.Init()

	s, err := sim.Load()
	if err != nil {
		return err
	}
	s.Output = os.Stdout
	log.Infof("Starting run %s with %d tasks", s.ID, len(s.Tasks))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	api.RegisterTerminationHandler(cancel)

	if port := config.GetInt(config.API_PORT, 0); port > 0 {
		e := echo.New()
		go api.StartAPIServer(e, s, port)
		defer api.ShutdownAPIServer(e)
	}

	if err := s.Run(ctx); err != nil {
		return err
	}

	status := s.Log.GetLogStatus()
	printSummary(os.Stdout, s.ID, s.Policy.Name(), status)

	if config.GetBool(config.OUTPUT_PARQUET, false) {
		dir := filepath.Join(config.GetString(config.OUTPUT_DIR, "results"), s.ID)
		if err := s.Log.WriteParquet(dir); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(w io.Writer, runID, policyName string, st *logging.LogStatus) {
	fmt.Fprintf(w, "Run %s (%s)\n", runID, policyName)
	fmt.Fprintf(w, "Tasks: %d\n", st.Tasks)
	fmt.Fprintf(w, "Completed: %d\n", st.Completed)
	tiers := make([]string, 0, len(st.CompletedPerTier))
	for tier := range st.CompletedPerTier {
		tiers = append(tiers, tier)
	}
	sort.Strings(tiers)
	for _, tier := range tiers {
		fmt.Fprintf(w, "  on %s: %d\n", tier, st.CompletedPerTier[tier])
	}
	fmt.Fprintf(w, "Failed: %d\n", st.Failed)
	fmt.Fprintf(w, "  rejected due to VM capacity: %d\n", st.RejectedDueToVMCapacity)
	fmt.Fprintf(w, "  rejected by solver: %d\n", st.RejectedBySolver)
	fmt.Fprintf(w, "  rejected due to bandwidth: %d\n", st.RejectedDueToBandwidth)
	fmt.Fprintf(w, "  error due to RAM capacity: %d\n", st.ErrorDueToRAM)
	fmt.Fprintf(w, "  error due to delay limit: %d\n", st.ErrorDueToDelay)
	fmt.Fprintf(w, "Service time: %.3f s (std %.3f)\n", st.AvgServiceTime, st.StdServiceTime)
	fmt.Fprintf(w, "Processing time: %.3f s\n", st.AvgProcessingTime)
	fmt.Fprintf(w, "Network delay: %.3f s\n", st.AvgNetworkDelay)
	fmt.Fprintf(w, "Average CPU: edge %.2f%%, cloud %.2f%%, mobile %.2f%%\n", st.AvgEdgeCPU, st.AvgCloudCPU, st.AvgMobileCPU)
	fmt.Fprintf(w, "Total cost: %.4f\n", st.TotalCost)
}
