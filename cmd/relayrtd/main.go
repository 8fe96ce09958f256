// Command relayrtd is a minimal demo host process: it loads a config file,
// spins up a controller with an example worker publishing to a shared hub,
// installs signal handling, and blocks until shutdown.
package main

import (
	"fmt"
	"os"

	"github.com/cuemby/relayrt/pkg/config"
	"github.com/cuemby/relayrt/pkg/controller"
	"github.com/cuemby/relayrt/pkg/rtlog"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "relayrtd",
	Short:   "relayrtd runs a worker/pub-sub supervision core",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("relayrtd version %s\ncommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "output logs in JSON format")
	rootCmd.PersistentFlags().String("config", "", "path to a relayrt config file (optional)")
	rootCmd.PersistentFlags().Duration("shutdown-timeout", controller.DefaultShutdownTimeout, "grace period before a forced shutdown")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(runCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOut, _ := rootCmd.PersistentFlags().GetBool("log-json")
	rtlog.Init(rtlog.Config{
		Level:      config.LogConfig{Level: level}.LogLevel(),
		JSONOutput: jsonOut,
	})
}
