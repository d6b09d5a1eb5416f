package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp-contracts/invoice-syncer/src/indexer"
	"github.com/warp-contracts/invoice-syncer/src/utils/logger"
	monitor_reconciler "github.com/warp-contracts/invoice-syncer/src/utils/monitoring/reconciler"
)

func init() {
	RootCmd.AddCommand(adminCmd)
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Fetch all invoices and admin actions from the indexer and print them as JSON",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		client := indexer.NewClient(conf).
			WithMonitor(monitor_reconciler.NewMonitor())

		snapshot := client.FetchAllInvoices(applicationCtx)

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(snapshot)
	},
	PostRunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("root-cmd")
		log.Debug("Finished admin command")
		return
	},
}
