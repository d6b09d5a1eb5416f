package cmd

import (
	"github.com/spf13/cobra"
	"github.com/warp-contracts/invoice-syncer/src/reconcile"
	"github.com/warp-contracts/invoice-syncer/src/utils/logger"
)

func init() {
	RootCmd.AddCommand(reconcileCmd)
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Track invoices of a viewer address and serve them over REST",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		controller, err := reconcile.NewController(conf)
		if err != nil {
			return
		}

		err = controller.Start()
		if err != nil {
			return
		}

		select {
		case <-controller.CtxRunning.Done():
		case <-applicationCtx.Done():
		}

		controller.StopWait()

		return
	},
	PostRunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("root-cmd")
		log.Debug("Finished reconcile command")
		applicationCtxCancel()
		return
	},
}
