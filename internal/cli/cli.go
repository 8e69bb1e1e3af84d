package cli

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/grussorusso/offsim/internal/config"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "offsim",
	Short: "Mobile edge computing offloading simulator",
	Long: `Discrete-event simulator of task offloading from mobile devices to
edge and cloud VMs, with greedy or solver-driven placement.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.ReadConfiguration(configFile)
		setupLogging()
	},
	SilenceUsage: true,
}

func setupLogging() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	level, err := log.ParseLevel(config.GetString(config.LOG_LEVEL, "info"))
	if err != nil {
		log.Warnf("Invalid log level, using info: %v", err)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// Init builds the command tree and executes it.
func Init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "configuration file")

	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&policy, "policy", "p", "", "placement policy: greedy|solver")
	runCmd.Flags().IntVarP(&devices, "devices", "d", 0, "number of mobile devices")
	runCmd.Flags().IntVarP(&statusPort, "status-port", "s", 0, "port of the status server (0 disables it)")

	rootCmd.AddCommand(batchesCmd)
	batchesCmd.Flags().IntVarP(&devices, "devices", "d", 0, "number of mobile devices")

	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVarP(&statusHost, "host", "H", "127.0.0.1", "host running the simulation")
	statusCmd.Flags().IntVarP(&remotePort, "port", "P", 1323, "port of the status server")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
