package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	config := Default()
	require.NotNil(t, config)
	require.Equal(t, 50, config.Indexer.PageSize)
	require.Equal(t, 10, config.Indexer.MaxAdminPages)
	require.Equal(t, 15*time.Second, config.Indexer.RateLimitCooldown)
	require.Equal(t, 5*time.Second, config.Reconciler.RefreshDebounce)
	require.Equal(t, "@every 1m", config.Admin.Schedule)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SYNCER_INDEXER_PAGE_SIZE", "20")
	t.Setenv("SYNCER_RECONCILER_VIEWER_ADDRESS", "0xabc")

	config, err := Load("")
	require.Nil(t, err)
	require.Equal(t, 20, config.Indexer.PageSize)
	require.Equal(t, "0xabc", config.Reconciler.ViewerAddress)
}
