package config

import (
	"time"

	"github.com/spf13/viper"
)

type Chain struct {
	// JSON-RPC endpoint, http(s) or ws(s)
	RpcUrl string

	// Expected chain id. Zero means accept whatever the node reports.
	ChainId int64

	// Payment processor contract for simple invoices
	SimpleContract string

	// Payment processor contract for marketplace invoices
	MarketplaceContract string

	// How often new logs are requested
	PollInterval time.Duration

	// Max number of blocks requested in a single eth_getLogs call
	MaxBlockRange uint64

	// Max number of direct contract reads per second
	ReadsPerSecond int

	// Time limit for a single contract read
	ReadTimeout time.Duration

	// How long block timestamps are kept in memory
	BlockTimeCacheTTL time.Duration
}

func setChainDefaults() {
	viper.SetDefault("Chain.RpcUrl", "http://localhost:8545")
	viper.SetDefault("Chain.ChainId", 0)
	viper.SetDefault("Chain.SimpleContract", "")
	viper.SetDefault("Chain.MarketplaceContract", "")
	viper.SetDefault("Chain.PollInterval", "4s")
	viper.SetDefault("Chain.MaxBlockRange", 2000)
	viper.SetDefault("Chain.ReadsPerSecond", 10)
	viper.SetDefault("Chain.ReadTimeout", "15s")
	viper.SetDefault("Chain.BlockTimeCacheTTL", "1h")
}
