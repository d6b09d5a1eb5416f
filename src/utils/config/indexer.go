package config

import (
	"time"

	"github.com/spf13/viper"
)

type Indexer struct {
	// GraphQL endpoint of the indexing service. Empty disables indexer queries.
	Url string

	// Optional bearer token sent with every query
	ApiKey string

	// Number of records requested per category in one round
	PageSize int

	// Upper bound of rounds for the admin-wide fetch
	MaxAdminPages int

	// Time limit for one query, including reading the body
	RequestTimeout time.Duration

	// How long queries are short-circuited after the indexer answered with 429
	RateLimitCooldown time.Duration
}

func setIndexerDefaults() {
	viper.SetDefault("Indexer.Url", "")
	viper.SetDefault("Indexer.ApiKey", "")
	viper.SetDefault("Indexer.PageSize", 50)
	viper.SetDefault("Indexer.MaxAdminPages", 10)
	viper.SetDefault("Indexer.RequestTimeout", "30s")
	viper.SetDefault("Indexer.RateLimitCooldown", "15s")
}
