// sessionctl inspects wallet call sessions, either through the aggregator's
// HTTP API or straight from the KV substrate when the aggregator is down.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiBase   string
	kvBackend string
	kvPath    string
	asJSON    bool
)

var rootCmd = &cobra.Command{
	Use:   "sessionctl",
	Short: "Inspect wallet call sessions",
	Long: `Inspect per-tab wallet call sessions maintained by the aggregator.

By default commands query the aggregator's HTTP API. Pass --kv-backend and
--kv-path to read persisted snapshots directly from the KV store instead,
for example when the aggregator is not running.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiBase, "api", "http://127.0.0.1:8091", "aggregator API base URL")
	rootCmd.PersistentFlags().StringVar(&kvBackend, "kv-backend", "", "read snapshots directly from this KV backend (bolt or rocks)")
	rootCmd.PersistentFlags().StringVar(&kvPath, "kv-path", "", "KV store path, required with --kv-backend")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print raw snapshot JSON")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
}
