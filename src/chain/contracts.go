package chain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/warp-contracts/invoice-syncer/src/utils/config"
	"github.com/warp-contracts/invoice-syncer/src/utils/model"
)

// Payment processor deployed for the source
func ContractAddress(config *config.Chain, source model.Source) (address common.Address, err error) {
	var hex string
	switch source {
	case model.SourceSimple:
		hex = config.SimpleContract
	case model.SourceMarketplace:
		hex = config.MarketplaceContract
	}

	if !common.IsHexAddress(hex) {
		err = fmt.Errorf("%w: %s", ErrNoContract, source)
		return
	}

	return common.HexToAddress(hex), nil
}
