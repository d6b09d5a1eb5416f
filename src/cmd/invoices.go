package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp-contracts/invoice-syncer/src/chain"
	"github.com/warp-contracts/invoice-syncer/src/indexer"
	"github.com/warp-contracts/invoice-syncer/src/reconcile"
	"github.com/warp-contracts/invoice-syncer/src/utils/logger"
	monitor_reconciler "github.com/warp-contracts/invoice-syncer/src/utils/monitoring/reconciler"
)

var invoicesAddress string

func init() {
	invoicesCmd.Flags().StringVar(&invoicesAddress, "address", "", "wallet address whose invoices are fetched")
	_ = invoicesCmd.MarkFlagRequired("address")
	RootCmd.AddCommand(invoicesCmd)
}

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Fetch invoices of an address from the indexer and print them as JSON",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		address, ok := chain.NormalizeAddress(invoicesAddress)
		if !ok {
			return fmt.Errorf("%w: %q", reconcile.ErrInvalidAddress, invoicesAddress)
		}

		client := indexer.NewClient(conf).
			WithMonitor(monitor_reconciler.NewMonitor())

		invoices := client.FetchUserInvoices(applicationCtx, address)
		reconcile.SortByLastAction(invoices)

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(invoices)
	},
	PostRunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("root-cmd")
		log.Debug("Finished invoices command")
		return
	},
}
