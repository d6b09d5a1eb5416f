package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/warp-contracts/invoice-syncer/src/utils/eth"
	"github.com/warp-contracts/invoice-syncer/src/utils/model"
)

// Payment processor event with arguments already normalized. Fields the event doesn't carry are nil/empty.
type ContractEvent struct {
	Name    string
	Source  model.Source
	OrderId *big.Int

	// Lowercase hex address
	Buyer string

	AmountPaid *big.Int
	ReleaseAt  uint64

	// Embedded invoice of InvoiceCreated
	Invoice *OnchainInvoice

	TxHash      string
	BlockNumber uint64
	LogIndex    uint
	Removed     bool
}

// Decodes raw logs of both payment processors
type Decoder struct {
	abis map[model.Source]*abi.ABI
}

func NewDecoder() (self *Decoder, err error) {
	self = new(Decoder)
	self.abis = make(map[model.Source]*abi.ABI)

	self.abis[model.SourceSimple], err = eth.GetContractABI(eth.SimplePaymentProcessor)
	if err != nil {
		return
	}

	self.abis[model.SourceMarketplace], err = eth.GetContractABI(eth.MarketplacePaymentProcessor)
	if err != nil {
		return
	}

	return
}

func (self *Decoder) ABI(source model.Source) *abi.ABI {
	return self.abis[source]
}

func (self *Decoder) Decode(source model.Source, vLog *types.Log) (out *ContractEvent, err error) {
	contractABI, ok := self.abis[source]
	if !ok {
		err = fmt.Errorf("%w: source %s", ErrUnknownEvent, source)
		return
	}

	event, args, err := eth.DecodeLog(contractABI, vLog)
	if err != nil {
		return
	}

	out = &ContractEvent{
		Name:        event.Name,
		Source:      source,
		TxHash:      strings.ToLower(vLog.TxHash.Hex()),
		BlockNumber: vLog.BlockNumber,
		LogIndex:    vLog.Index,
		Removed:     vLog.Removed,
	}

	out.OrderId, ok = ToBigInt(args["orderId"])
	if !ok {
		err = fmt.Errorf("%s without orderId", event.Name)
		return nil, err
	}

	if buyer, ok := ToAddress(args["buyer"]); ok {
		out.Buyer = buyer
	}

	if amount, ok := ToBigInt(args["amountPaid"]); ok {
		out.AmountPaid = amount
	}

	out.ReleaseAt = toUint64(args["releaseAt"])

	if raw, ok := args["invoice"]; ok {
		out.Invoice, err = AdaptInvoice(raw)
		if err != nil {
			return nil, err
		}
	}

	return
}
