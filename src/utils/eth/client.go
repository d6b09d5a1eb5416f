package eth

import (
	"embed"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var ErrLogNotFound = errors.New("desired transaction log not found")

//go:embed abi/*.json
var abiFiles embed.FS

type ContractAbi string

const (
	SimplePaymentProcessor      ContractAbi = "simple_payment_processor.json"
	MarketplacePaymentProcessor ContractAbi = "marketplace_payment_processor.json"
	InvoiceNotes                ContractAbi = "invoice_notes.json"
)

func GetEthClient(log *logrus.Entry, rpcUrl string) (client *ethclient.Client, err error) {
	if rpcUrl == "" {
		err = errors.New("ETH rpc url not configured")
		log.WithError(err).Error("Cannot get ETH client")
		return
	}

	client, err = ethclient.Dial(rpcUrl)
	if err != nil {
		log.WithError(err).Error("Cannot get ETH client")
		return
	}

	return
}

func GetContractABI(name ContractAbi) (*abi.ABI, error) {
	content, err := abiFiles.ReadFile("abi/" + string(name))
	if err != nil {
		return nil, err
	}

	contractABI, err := abi.JSON(strings.NewReader(string(content)))
	if err != nil {
		return nil, err
	}
	return &contractABI, nil
}

func MustGetContractABI(name ContractAbi) *abi.ABI {
	contractABI, err := GetContractABI(name)
	if err != nil {
		panic(fmt.Errorf("failed to load %s: %w", name, err))
	}
	return contractABI
}

// Decodes indexed and non-indexed arguments of a log into one map
func DecodeLog(contractABI *abi.ABI, vLog *types.Log) (event *abi.Event, args map[string]interface{}, err error) {
	if len(vLog.Topics) == 0 {
		err = errors.New("log has no topics")
		return
	}

	event, err = contractABI.EventByID(vLog.Topics[0])
	if err != nil {
		return
	}

	args = make(map[string]interface{})

	indexed := make([]abi.Argument, 0)
	for _, input := range event.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	err = abi.ParseTopicsIntoMap(args, indexed, vLog.Topics[1:])
	if err != nil {
		return
	}

	if len(vLog.Data) > 0 {
		err = contractABI.UnpackIntoMap(args, event.Name, vLog.Data)
		if err != nil {
			return
		}
	}
	return
}

func GetTransactionLog(receipt *types.Receipt, contractABI *abi.ABI, name string) (eventMap map[string]interface{}, err error) {
	for _, vLog := range receipt.Logs {
		event, args, err := DecodeLog(contractABI, vLog)
		if err != nil {
			continue
		}

		if event.Name == name {
			args["name"] = event.Name
			return args, nil
		}
	}

	err = ErrLogNotFound
	return
}

// Wei amount as a decimal ether string, always with a fractional part ("1.0", "0.25")
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return ""
	}
	out := decimal.NewFromBigInt(wei, -18).String()
	if !strings.Contains(out, ".") {
		out += ".0"
	}
	return out
}

// Is the decimal amount missing or zero
func IsZeroAmount(amount string) bool {
	if amount == "" {
		return true
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return true
	}
	return d.IsZero()
}
