package chain

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
	"github.com/warp-contracts/invoice-syncer/src/utils/config"
	"github.com/warp-contracts/invoice-syncer/src/utils/logger"
	"github.com/warp-contracts/invoice-syncer/src/utils/monitoring"
)

type LogSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// Polls contract logs and hands them over in batches
type Watcher struct {
	config  *config.Config
	log     *logrus.Entry
	monitor monitoring.Monitor

	client LogSource
}

func NewWatcher(config *config.Config) (self *Watcher) {
	self = new(Watcher)
	self.config = config
	self.log = logger.NewSublogger("watcher")
	return
}

func (self *Watcher) WithClient(client LogSource) *Watcher {
	self.client = client
	return self
}

func (self *Watcher) WithMonitor(monitor monitoring.Monitor) *Watcher {
	self.monitor = monitor
	return self
}

// Delivers logs of the named events emitted after the call. Logs of one poll
// come as one batch sorted by block and index. The returned function stops
// watching and waits until no callback runs; it mustn't be called from a callback.
func (self *Watcher) Watch(ctx context.Context, address common.Address, contractABI *abi.ABI, eventNames []string, onLogs func([]types.Log), onError func(error)) (unsubscribe func(), err error) {
	topics := make([]common.Hash, 0, len(eventNames))
	for _, name := range eventNames {
		event, ok := contractABI.Events[name]
		if !ok {
			err = fmt.Errorf("%w: %s", ErrUnknownEvent, name)
			return
		}
		topics = append(topics, event.ID)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	log := self.log.WithField("contract", address.Hex())

	go func() {
		defer close(done)

		self.monitor.GetReport().Chain.State.ActiveWatchers.Inc()
		defer self.monitor.GetReport().Chain.State.ActiveWatchers.Dec()

		ticker := time.NewTicker(self.config.Chain.PollInterval)
		defer ticker.Stop()

		var next uint64
		initialized := false

		poll := func() {
			head, err := self.client.BlockNumber(ctx)
			if err != nil {
				self.fail(ctx, onError, err)
				return
			}

			if !initialized {
				// Only logs emitted after subscribing
				next = head + 1
				initialized = true
				log.WithField("head", head).Debug("Watching")
				return
			}

			for next <= head {
				to := min(head, next+max(self.config.Chain.MaxBlockRange, 1)-1)

				logs, err := self.client.FilterLogs(ctx, ethereum.FilterQuery{
					FromBlock: new(big.Int).SetUint64(next),
					ToBlock:   new(big.Int).SetUint64(to),
					Addresses: []common.Address{address},
					Topics:    [][]common.Hash{topics},
				})
				if err != nil {
					self.fail(ctx, onError, err)
					return
				}

				sort.SliceStable(logs, func(i, j int) bool {
					if logs[i].BlockNumber != logs[j].BlockNumber {
						return logs[i].BlockNumber < logs[j].BlockNumber
					}
					return logs[i].Index < logs[j].Index
				})

				self.monitor.GetReport().Chain.State.LogsFetched.Add(uint64(len(logs)))
				self.monitor.GetReport().Chain.State.LastPolledBlock.Store(to)

				if len(logs) > 0 && ctx.Err() == nil {
					onLogs(logs)
				}

				next = to + 1
			}
		}

		poll()
		for {
			select {
			case <-ctx.Done():
				log.Debug("Stopped watching")
				return
			case <-ticker.C:
				poll()
			}
		}
	}()

	var once sync.Once
	unsubscribe = func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
	return
}

func (self *Watcher) fail(ctx context.Context, onError func(error), err error) {
	if ctx.Err() != nil {
		// Unsubscribed
		return
	}
	self.monitor.GetReport().Chain.Errors.Polls.Inc()
	if onError != nil {
		onError(err)
	}
}
