package model

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Viewer's relationship to the invoice
type InvoiceType string

const (
	InvoiceTypeSeller          InvoiceType = "Seller"
	InvoiceTypeBuyer           InvoiceType = "Buyer"
	InvoiceTypeIssuedInvoice   InvoiceType = "IssuedInvoice"
	InvoiceTypeReceivedInvoice InvoiceType = "ReceivedInvoice"
)

// Contract family that produced the invoice
type Source string

const (
	SourceSimple      Source = "Simple"
	SourceMarketplace Source = "Marketplace"
)

var Sources = []Source{SourceSimple, SourceMarketplace}

// Invoice type seen by the seller or the buyer of an invoice from the given source
func InvoiceTypeFor(source Source, isSeller bool) InvoiceType {
	switch {
	case source == SourceMarketplace && isSeller:
		return InvoiceTypeIssuedInvoice
	case source == SourceMarketplace:
		return InvoiceTypeReceivedInvoice
	case isSeller:
		return InvoiceTypeSeller
	default:
		return InvoiceTypeBuyer
	}
}

// Label stored instead of the payment time in raw records of unpaid invoices
const NotPaid = "Not Paid"

type HistoryEntry struct {
	Status InvoiceStatus `json:"status"`
	Time   *time.Time    `json:"time"`
}

type Invoice struct {
	Id            string         `json:"id"`
	OrderId       *big.Int       `json:"orderId"`
	Price         string         `json:"price"`
	AmountPaid    string         `json:"amountPaid"`
	CreatedAt     *time.Time     `json:"createdAt"`
	PaidAt        *time.Time     `json:"paidAt"`
	ReleaseAt     *time.Time     `json:"releaseAt"`
	InvalidateAt  *time.Time     `json:"invalidateAt"`
	ExpiresAt     *time.Time     `json:"expiresAt"`
	CancelAt      *time.Time     `json:"cancelAt"`
	Status        InvoiceStatus  `json:"status"`
	Type          InvoiceType    `json:"type"`
	Source        Source         `json:"source"`
	Seller        string         `json:"seller"`
	Buyer         string         `json:"buyer"`
	PaymentTxHash string         `json:"paymentTxHash,omitempty"`
	ReleaseHash   string         `json:"releaseHash,omitempty"`
	RefundTxHash  string         `json:"refundTxHash,omitempty"`
	History       []HistoryEntry `json:"history,omitempty"`
}

// Identity of one invoice-view row
type InvoiceKey struct {
	OrderId string
	Type    InvoiceType
	Source  Source
}

func (self InvoiceKey) String() string {
	return fmt.Sprintf("%s/%s/%s", self.OrderId, self.Type, self.Source)
}

func OrderKey(orderId *big.Int) string {
	if orderId == nil {
		return ""
	}
	return orderId.String()
}

func (self *Invoice) Key() InvoiceKey {
	return InvoiceKey{
		OrderId: OrderKey(self.OrderId),
		Type:    self.Type,
		Source:  self.Source,
	}
}

// Latest history entry, else payment time, else creation time. Nil when nothing is known.
func (self *Invoice) LastActionTime() *time.Time {
	var latest *time.Time
	for _, entry := range self.History {
		if entry.Time == nil {
			continue
		}
		if latest == nil || entry.Time.After(*latest) {
			latest = entry.Time
		}
	}
	if latest != nil {
		return latest
	}
	if self.PaidAt != nil {
		return self.PaidAt
	}
	return self.CreatedAt
}

// Is the address on either side of the invoice
func (self *Invoice) Involves(address string) bool {
	return SameAddress(self.Seller, address) || SameAddress(self.Buyer, address)
}

func (self *Invoice) Clone() *Invoice {
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
	out.ExpiresAt = cloneTime(self.ExpiresAt)
	out.CancelAt = cloneTime(self.CancelAt)
	if self.History != nil {
		out.History = make([]HistoryEntry, len(self.History))
		for i, entry := range self.History {
			out.History[i] = HistoryEntry{Status: entry.Status, Time: cloneTime(entry.Time)}
		}
	}
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	out := *t
	return &out
}

// Case insensitive hex address comparison, empty never matches
func SameAddress(a, b string) bool {
	return a != "" && b != "" && strings.EqualFold(a, b)
}

// Unix seconds to time, zero is treated as absent
func UnixTime(seconds int64) *time.Time {
	if seconds <= 0 {
		return nil
	}
	t := time.Unix(seconds, 0).UTC()
	return &t
}

func CloneInvoices(in []*Invoice) []*Invoice {
	if in == nil {
		return nil
	}
	out := make([]*Invoice, len(in))
	for i, invoice := range in {
		out[i] = invoice.Clone()
	}
	return out
}
