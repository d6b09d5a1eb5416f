package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
	"github.com/warp-contracts/invoice-syncer/src/utils/config"
	"github.com/warp-contracts/invoice-syncer/src/utils/eth"
	"github.com/warp-contracts/invoice-syncer/src/utils/logger"
	"github.com/warp-contracts/invoice-syncer/src/utils/model"
)

type TransactBackend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

// Sends note transactions to the notes contract and waits for them to be mined
type NoteWriter struct {
	config *config.Config
	log    *logrus.Entry

	backend  TransactBackend
	abi      *abi.ABI
	contract *bind.BoundContract
	key      *ecdsa.PrivateKey
	author   string

	mtx     sync.Mutex
	chainId *big.Int
}

func NewNoteWriter(config *config.Config, backend TransactBackend) (self *NoteWriter, err error) {
	self = new(NoteWriter)
	self.config = config
	self.log = logger.NewSublogger("note-writer")
	self.backend = backend

	if !common.IsHexAddress(config.Notes.Contract) {
		err = fmt.Errorf("%w: notes", ErrNoContract)
		return
	}

	self.key, err = crypto.HexToECDSA(strings.TrimPrefix(config.Notes.SignerPrivateKey, "0x"))
	if err != nil {
		err = fmt.Errorf("invalid notes signer key: %w", err)
		return
	}
	self.author = strings.ToLower(crypto.PubkeyToAddress(self.key.PublicKey).Hex())

	self.abi, err = eth.GetContractABI(eth.InvoiceNotes)
	if err != nil {
		return
	}

	address := common.HexToAddress(config.Notes.Contract)
	self.contract = bind.NewBoundContract(address, *self.abi, backend, backend, backend)

	if config.Chain.ChainId != 0 {
		self.chainId = big.NewInt(config.Chain.ChainId)
	}

	return
}

// Address signing note transactions
func (self *NoteWriter) Author() string {
	return self.author
}

func (self *NoteWriter) transactor(ctx context.Context) (opts *bind.TransactOpts, err error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	if self.chainId == nil {
		self.chainId, err = self.backend.ChainID(ctx)
		if err != nil {
			return
		}
	}

	opts, err = bind.NewKeyedTransactorWithChainID(self.key, self.chainId)
	if err != nil {
		return
	}
	opts.Context = ctx
	return
}

func (self *NoteWriter) send(ctx context.Context, method string, params ...interface{}) (receipt *types.Receipt, txHash string, err error) {
	opts, err := self.transactor(ctx)
	if err != nil {
		return
	}

	tx, err := self.contract.Transact(opts, method, params...)
	if err != nil {
		return
	}
	txHash = strings.ToLower(tx.Hash().Hex())

	self.log.WithField("method", method).WithField("tx", txHash).Debug("Transaction sent")

	ctx, cancel := context.WithTimeout(ctx, self.config.Notes.TransactionTimeout)
	defer cancel()

	receipt, err = bind.WaitMined(ctx, self.backend, tx)
	if err != nil {
		return
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		err = fmt.Errorf("%s transaction %s reverted", method, txHash)
		return
	}

	return
}

func (self *NoteWriter) CreateNote(ctx context.Context, orderId *big.Int, author string, content string, share bool) (noteId *big.Int, txHash string, err error) {
	if !model.SameAddress(author, self.author) {
		err = ErrAuthorMismatch
		return
	}

	receipt, txHash, err := self.send(ctx, "createNote", orderId, content, share)
	if err != nil {
		return
	}

	args, err := eth.GetTransactionLog(receipt, self.abi, "NoteCreated")
	if err != nil {
		return
	}

	noteId, ok := ToBigInt(args["noteId"])
	if !ok {
		err = errors.New("NoteCreated without noteId")
		return
	}

	return
}

func (self *NoteWriter) SetNoteOpenState(ctx context.Context, orderId, noteId *big.Int, open bool) (txHash string, err error) {
	_, txHash, err = self.send(ctx, "setNoteOpenState", orderId, noteId, open)
	return
}
