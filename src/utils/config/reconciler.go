package config

import (
	"time"

	"github.com/spf13/viper"
)

type Reconciler struct {
	// Address whose invoices are tracked at startup
	ViewerAddress string

	// Delay of the indexer re-fetch scheduled after live patches
	RefreshDebounce time.Duration

	// Number of workers reading missing fields from the chain
	HydrationNumWorkers int

	// Max number of hydrations waiting in the worker queue
	HydrationWorkerQueueSize int

	// Time limit for a single hydration, retries included
	HydrationTimeout time.Duration

	// Size of the buffered change notifications channel
	ChangesChannelSize int
}

func setReconcilerDefaults() {
	viper.SetDefault("Reconciler.ViewerAddress", "")
	viper.SetDefault("Reconciler.RefreshDebounce", "5s")
	viper.SetDefault("Reconciler.HydrationNumWorkers", 4)
	viper.SetDefault("Reconciler.HydrationWorkerQueueSize", 100)
	viper.SetDefault("Reconciler.HydrationTimeout", "30s")
	viper.SetDefault("Reconciler.ChangesChannelSize", 10)
}
