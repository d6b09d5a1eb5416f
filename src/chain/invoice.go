package chain

import (
	"math/big"
	"time"

	"github.com/warp-contracts/invoice-syncer/src/utils/eth"
	"github.com/warp-contracts/invoice-syncer/src/utils/model"
)

// Invoice struct as stored by a payment processor contract, one shape for all bindings
type OnchainInvoice struct {
	InvoiceId    *big.Int
	Seller       string
	Buyer        string
	Price        *big.Int
	AmountPaid   *big.Int
	CreatedAt    uint64
	PaidAt       uint64
	ReleaseAt    uint64
	InvalidateAt uint64
	ExpiresAt    uint64
	Status       uint8
}

// Deadlines and payment time read directly from the contract. Nil means unset.
type InvoiceTiming struct {
	PaidAt       *time.Time
	ReleaseAt    *time.Time
	InvalidateAt *time.Time
	ExpiresAt    *time.Time
}

func (self *InvoiceTiming) IsEmpty() bool {
	return self == nil || (self.PaidAt == nil && self.ReleaseAt == nil && self.InvalidateAt == nil && self.ExpiresAt == nil)
}

func (self *OnchainInvoice) Exists() bool {
	return self != nil && self.Seller != "" && self.Seller != zeroAddress
}

func (self *OnchainInvoice) Timing() *InvoiceTiming {
	return &InvoiceTiming{
		PaidAt:       model.UnixTime(int64(self.PaidAt)),
		ReleaseAt:    model.UnixTime(int64(self.ReleaseAt)),
		InvalidateAt: model.UnixTime(int64(self.InvalidateAt)),
		ExpiresAt:    model.UnixTime(int64(self.ExpiresAt)),
	}
}

// Normalized invoice row as seen by the viewer. Type is derived from the viewer's side of the invoice.
func (self *OnchainInvoice) ToInvoice(orderId *big.Int, source model.Source, viewer string) *model.Invoice {
	timing := self.Timing()

	if orderId == nil {
		orderId = self.InvoiceId
	}

	invoice := &model.Invoice{
		Id:           model.OrderKey(orderId),
		OrderId:      orderId,
		Price:        eth.FormatEther(self.Price),
		AmountPaid:   eth.FormatEther(self.AmountPaid),
		CreatedAt:    model.UnixTime(int64(self.CreatedAt)),
		PaidAt:       timing.PaidAt,
		ReleaseAt:    timing.ReleaseAt,
		InvalidateAt: timing.InvalidateAt,
		ExpiresAt:    timing.ExpiresAt,
		Status:       model.NormalizeRawState(OnchainStatusName(self.Status), timing.InvalidateAt),
		Type:         model.InvoiceTypeFor(source, model.SameAddress(self.Seller, viewer)),
		Source:       source,
		Seller:       self.Seller,
		Buyer:        self.Buyer,
	}

	if invoice.Buyer == zeroAddress {
		invoice.Buyer = ""
	}

	return invoice
}
