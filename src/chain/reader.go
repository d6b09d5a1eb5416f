package chain

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/sirupsen/logrus"
	"github.com/warp-contracts/invoice-syncer/src/utils/config"
	"github.com/warp-contracts/invoice-syncer/src/utils/eth"
	"github.com/warp-contracts/invoice-syncer/src/utils/logger"
	"github.com/warp-contracts/invoice-syncer/src/utils/model"
	"github.com/warp-contracts/invoice-syncer/src/utils/monitoring"
	"github.com/warp-contracts/invoice-syncer/src/utils/task"
	"go.uber.org/ratelimit"
)

type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Direct reads of invoices from the payment processors. Never returns errors,
// failures are logged and reported as "no update".
type Reader struct {
	config  *config.Config
	log     *logrus.Entry
	monitor monitoring.Monitor

	caller  ContractCaller
	limiter ratelimit.Limiter
	abis    map[model.Source]*abi.ABI
}

func NewReader(config *config.Config) (self *Reader) {
	self = new(Reader)
	self.config = config
	self.log = logger.NewSublogger("chain-reader")

	rps := config.Chain.ReadsPerSecond
	if rps <= 0 {
		self.limiter = ratelimit.NewUnlimited()
	} else {
		self.limiter = ratelimit.New(rps)
	}

	self.abis = map[model.Source]*abi.ABI{
		model.SourceSimple:      eth.MustGetContractABI(eth.SimplePaymentProcessor),
		model.SourceMarketplace: eth.MustGetContractABI(eth.MarketplacePaymentProcessor),
	}

	return
}

func (self *Reader) WithCaller(caller ContractCaller) *Reader {
	self.caller = caller
	return self
}

func (self *Reader) WithMonitor(monitor monitoring.Monitor) *Reader {
	self.monitor = monitor
	return self
}

// Payment, release and expiry deadlines of the invoice
func (self *Reader) ReadInvoiceTiming(ctx context.Context, source model.Source, orderId *big.Int) (*InvoiceTiming, bool) {
	invoice, ok := self.ReadFullInvoice(ctx, source, orderId)
	if !ok {
		return nil, false
	}
	return invoice.Timing(), true
}

// Whole invoice struct as stored on chain
func (self *Reader) ReadFullInvoice(ctx context.Context, source model.Source, orderId *big.Int) (*OnchainInvoice, bool) {
	log := self.log.WithField("order_id", model.OrderKey(orderId)).WithField("source", source)

	invoice, err := self.readInvoice(ctx, source, orderId)
	if err != nil {
		if errors.Is(err, ErrUnknownOrder) {
			log.Debug("Invoice not on chain yet")
		} else {
			log.WithError(err).Warn("Failed to read invoice from chain")
		}
		self.monitor.GetReport().Chain.Errors.Reads.Inc()
		return nil, false
	}

	return invoice, true
}

func (self *Reader) readInvoice(ctx context.Context, source model.Source, orderId *big.Int) (invoice *OnchainInvoice, err error) {
	if orderId == nil {
		err = ErrUnknownOrder
		return
	}

	if self.caller == nil {
		err = errors.New("chain reader has no rpc client")
		return
	}

	address, err := ContractAddress(&self.config.Chain, source)
	if err != nil {
		return
	}

	contractABI := self.abis[source]
	input, err := contractABI.Pack("getInvoice", orderId)
	if err != nil {
		return
	}

	err = task.NewRetry().
		WithContext(ctx).
		WithMaxElapsedTime(self.config.Chain.ReadTimeout).
		WithMaxInterval(time.Second).
		WithOnError(func(err error) error {
			if errors.Is(err, ErrUnknownOrder) || errors.Is(err, ErrUnsupportedShape) {
				return backoff.Permanent(err)
			}
			self.log.WithError(err).WithField("order_id", orderId).Debug("Contract read failed, retrying")
			return err
		}).
		Run(func() (err error) {
			self.limiter.Take()
			self.monitor.GetReport().Chain.State.Reads.Inc()

			callCtx, cancel := context.WithTimeout(ctx, self.config.Chain.ReadTimeout)
			defer cancel()

			output, err := self.caller.CallContract(callCtx, ethereum.CallMsg{To: &address, Data: input}, nil)
			if err != nil {
				return
			}

			values, err := contractABI.Unpack("getInvoice", output)
			if err != nil {
				return
			}

			invoice, err = AdaptInvoice(values)
			if err != nil {
				return
			}

			if !invoice.Exists() {
				return ErrUnknownOrder
			}
			return nil
		})

	return
}
