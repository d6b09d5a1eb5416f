package model

import (
	"math/big"
	"time"
)

// Flattened invoice used by the global admin view
type AllInvoice struct {
	Id           string        `json:"id"`
	OrderId      *big.Int      `json:"orderId"`
	Source       Source        `json:"source"`
	Seller       string        `json:"seller"`
	Buyer        string        `json:"buyer"`
	Price        string        `json:"price"`
	AmountPaid   string        `json:"amountPaid"`
	Status       InvoiceStatus `json:"status"`
	CreatedAt    *time.Time    `json:"createdAt"`
	PaidAt       *time.Time    `json:"paidAt"`
	ReleaseAt    *time.Time    `json:"releaseAt"`
	InvalidateAt *time.Time    `json:"invalidateAt"`
}

// Entry of the contract administration log
type AdminAction struct {
	Id        string     `json:"id"`
	OrderId   *big.Int   `json:"orderId"`
	Action    string     `json:"action"`
	Actor     string     `json:"actor"`
	TxHash    string     `json:"txHash"`
	Timestamp *time.Time `json:"timestamp"`
}

type AdminSnapshot struct {
	Invoices            []*AllInvoice  `json:"invoices"`
	Actions             []*AdminAction `json:"actions"`
	MarketplaceInvoices []*AllInvoice  `json:"marketplaceInvoices"`
	FetchedAt           time.Time      `json:"fetchedAt"`
}

func (self *AdminSnapshot) IsEmpty() bool {
	return self == nil || len(self.Invoices)+len(self.Actions)+len(self.MarketplaceInvoices) == 0
}

func (self *AllInvoice) Clone() *AllInvoice {
	if self == nil {
		return nil
	}
	out := *self
	if self.OrderId != nil {
		out.OrderId = new(big.Int).Set(self.OrderId)
	}
	out.CreatedAt = cloneTime(self.CreatedAt)
	out.PaidAt = cloneTime(self.PaidAt)
	out.ReleaseAt = cloneTime(self.ReleaseAt)
	out.InvalidateAt = cloneTime(self.InvalidateAt)
	return &out
}

func (self *AdminAction) Clone() *AdminAction {
	if self == nil {
		return nil
	}
	out := *self
	if self.OrderId != nil {
		out.OrderId = new(big.Int).Set(self.OrderId)
	}
	out.Timestamp = cloneTime(self.Timestamp)
	return &out
}

// Deep copy, nothing is shared with the original
func (self *AdminSnapshot) Clone() *AdminSnapshot {
	if self == nil {
		return nil
	}
	out := &AdminSnapshot{FetchedAt: self.FetchedAt}
	out.Invoices = cloneAll(self.Invoices)
	out.MarketplaceInvoices = cloneAll(self.MarketplaceInvoices)
	if self.Actions != nil {
		out.Actions = make([]*AdminAction, len(self.Actions))
		for i, action := range self.Actions {
			out.Actions[i] = action.Clone()
		}
	}
	return out
}

func cloneAll(in []*AllInvoice) []*AllInvoice {
	if in == nil {
		return nil
	}
	out := make([]*AllInvoice, len(in))
	for i, invoice := range in {
		out[i] = invoice.Clone()
	}
	return out
}
