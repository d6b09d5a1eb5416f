package config

import (
	"github.com/spf13/viper"
)

type Admin struct {
	// Is the admin-wide snapshot refreshed
	Enabled bool

	// Cron schedule of the wholesale refresh
	Schedule string
}

func setAdminDefaults() {
	viper.SetDefault("Admin.Enabled", "false")
	viper.SetDefault("Admin.Schedule", "@every 1m")
}
