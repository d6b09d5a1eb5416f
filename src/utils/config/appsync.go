package config

import (
	"time"

	"github.com/spf13/viper"
)

type AppSync struct {
	// Are invoice snapshots published to AppSync
	Enabled bool

	// Security token
	Token string

	// API url
	Url string

	// Channel name used in the publish mutation
	ChannelName string

	// Max time between failed retries
	BackoffMaxInterval time.Duration

	// Max time a publish is retried, 0 means no limit
	BackoffMaxElapsedTime time.Duration

	// Num of workers that publish messages
	MaxWorkers int

	// Max num of requests in worker's queue
	MaxQueueSize int
}

func setAppSyncDefaults() {
	viper.SetDefault("AppSync.Enabled", "false")
	viper.SetDefault("AppSync.Token", "")
	viper.SetDefault("AppSync.Url", "")
	viper.SetDefault("AppSync.ChannelName", "invoices")
	viper.SetDefault("AppSync.BackoffMaxInterval", "10s")
	viper.SetDefault("AppSync.BackoffMaxElapsedTime", "1m")
	viper.SetDefault("AppSync.MaxWorkers", "5")
	viper.SetDefault("AppSync.MaxQueueSize", "10")
}
