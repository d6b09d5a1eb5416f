package chain

import (
	"context"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"github.com/warp-contracts/invoice-syncer/src/utils/config"
	"github.com/warp-contracts/invoice-syncer/src/utils/logger"
	"github.com/warp-contracts/invoice-syncer/src/utils/monitoring"
)

type HeaderReader interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// Block number to block timestamp, owned by one viewer session
type BlockTimes struct {
	log     *logrus.Entry
	monitor monitoring.Monitor

	cache  *cache.Cache
	client HeaderReader
}

func NewBlockTimes(config *config.Config) (self *BlockTimes) {
	self = new(BlockTimes)
	self.log = logger.NewSublogger("block-times")
	self.cache = cache.New(config.Chain.BlockTimeCacheTTL, 2*config.Chain.BlockTimeCacheTTL)
	return
}

func (self *BlockTimes) WithClient(client HeaderReader) *BlockTimes {
	self.client = client
	return self
}

func (self *BlockTimes) WithMonitor(monitor monitoring.Monitor) *BlockTimes {
	self.monitor = monitor
	return self
}

func key(blockNumber uint64) string {
	return strconv.FormatUint(blockNumber, 10)
}

func (self *BlockTimes) Get(blockNumber uint64) (t time.Time, ok bool) {
	v, ok := self.cache.Get(key(blockNumber))
	if !ok {
		return
	}
	return v.(time.Time), true
}

func (self *BlockTimes) Set(blockNumber uint64, t time.Time) {
	self.cache.SetDefault(key(blockNumber), t)
}

func (self *BlockTimes) Clear() {
	self.cache.Flush()
}

// Cached timestamp, fetches the header on a miss
func (self *BlockTimes) Resolve(ctx context.Context, blockNumber uint64) (t time.Time, ok bool) {
	t, ok = self.Get(blockNumber)
	if ok {
		self.monitor.GetReport().Chain.State.BlockTimeCacheHits.Inc()
		return
	}

	if self.client == nil {
		return
	}

	header, err := self.client.HeaderByNumber(ctx, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		self.monitor.GetReport().Chain.Errors.BlockTimes.Inc()
		self.log.WithError(err).WithField("block", blockNumber).Debug("Failed to get block header")
		return
	}

	t = time.Unix(int64(header.Time), 0).UTC()
	self.Set(blockNumber, t)
	return t, true
}
