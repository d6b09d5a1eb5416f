package config

import (
	"time"

	"github.com/spf13/viper"
)

type Notes struct {
	// Contract storing invoice notes. Empty disables writes.
	Contract string

	// Hex encoded key used to sign note transactions
	SignerPrivateKey string

	// Max time waiting for a note transaction to be mined
	TransactionTimeout time.Duration
}

func setNotesDefaults() {
	viper.SetDefault("Notes.Contract", "")
	viper.SetDefault("Notes.SignerPrivateKey", "")
	viper.SetDefault("Notes.TransactionTimeout", "2m")
}
