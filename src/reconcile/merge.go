package reconcile

import (
	"strings"
	"time"

	"github.com/warp-contracts/invoice-syncer/src/utils/eth"
	"github.com/warp-contracts/invoice-syncer/src/utils/model"
)

const (
	zeroAddress = "0x0000000000000000000000000000000000000000"
	zeroHash    = "0x0000000000000000000000000000000000000000000000000000000000000000"
)

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func preferString(existing, incoming string) string {
	if isBlank(incoming) {
		return existing
	}
	return incoming
}

func preferAmount(existing, incoming string) string {
	if eth.IsZeroAmount(incoming) && !isBlank(existing) {
		return existing
	}
	if isBlank(incoming) {
		return existing
	}
	return incoming
}

func preferAddress(existing, incoming string) string {
	if isBlank(incoming) || strings.EqualFold(incoming, zeroAddress) {
		return existing
	}
	return incoming
}

func preferHash(existing, incoming string) string {
	if isBlank(incoming) || strings.EqualFold(incoming, zeroHash) {
		return existing
	}
	return incoming
}

func preferTime(existing, incoming *time.Time) *time.Time {
	if incoming == nil || incoming.IsZero() {
		return existing
	}
	t := *incoming
	return &t
}

// Combines two views of the same invoice row. Status never regresses, every
// other field takes the incoming value unless it's missing or a placeholder.
// Merging the same incoming record again changes nothing.
func MergeInvoice(existing, incoming *model.Invoice) *model.Invoice {
	if existing == nil {
		return incoming.Clone()
	}
	if incoming == nil {
		return existing.Clone()
	}

	out := existing.Clone()
	out.Status = model.MergeStatus(existing.Status, incoming.Status)
	out.Id = preferString(existing.Id, incoming.Id)
	out.Price = preferAmount(existing.Price, incoming.Price)
	out.AmountPaid = preferAmount(existing.AmountPaid, incoming.AmountPaid)
	out.CreatedAt = preferTime(existing.CreatedAt, incoming.CreatedAt)
	out.PaidAt = preferTime(existing.PaidAt, incoming.PaidAt)
	out.ReleaseAt = preferTime(existing.ReleaseAt, incoming.ReleaseAt)
	out.InvalidateAt = preferTime(existing.InvalidateAt, incoming.InvalidateAt)
	out.ExpiresAt = preferTime(existing.ExpiresAt, incoming.ExpiresAt)
	out.CancelAt = preferTime(existing.CancelAt, incoming.CancelAt)
	out.Seller = preferAddress(existing.Seller, incoming.Seller)
	out.Buyer = preferAddress(existing.Buyer, incoming.Buyer)
	out.PaymentTxHash = preferHash(existing.PaymentTxHash, incoming.PaymentTxHash)
	out.ReleaseHash = preferHash(existing.ReleaseHash, incoming.ReleaseHash)
	out.RefundTxHash = preferHash(existing.RefundTxHash, incoming.RefundTxHash)

	if len(incoming.History) > 0 {
		out.History = incoming.Clone().History
	}

	return out
}

// Field level update produced by a live event or a timing read
type EventPatch struct {
	OrderId string
	Source  model.Source

	// Empty leaves the status as is
	Status model.InvoiceStatus

	AmountPaid    string
	Buyer         string
	PaymentTxHash string
	ReleaseHash   string
	RefundTxHash  string

	PaidAt       *time.Time
	ReleaseAt    *time.Time
	InvalidateAt *time.Time
	ExpiresAt    *time.Time

	// Used only if the invoice has no payment time yet
	FallbackPaidAt *time.Time
}

func (self *EventPatch) apply(existing *model.Invoice) *model.Invoice {
	out := existing.Clone()
	if self.Status != "" {
		out.Status = model.MergeStatus(existing.Status, self.Status)
	}
	out.AmountPaid = preferAmount(existing.AmountPaid, self.AmountPaid)
	out.Buyer = preferAddress(existing.Buyer, self.Buyer)
	out.PaymentTxHash = preferHash(existing.PaymentTxHash, self.PaymentTxHash)
	out.ReleaseHash = preferHash(existing.ReleaseHash, self.ReleaseHash)
	out.RefundTxHash = preferHash(existing.RefundTxHash, self.RefundTxHash)
	out.PaidAt = preferTime(existing.PaidAt, self.PaidAt)
	out.ReleaseAt = preferTime(existing.ReleaseAt, self.ReleaseAt)
	out.InvalidateAt = preferTime(existing.InvalidateAt, self.InvalidateAt)
	out.ExpiresAt = preferTime(existing.ExpiresAt, self.ExpiresAt)
	if out.PaidAt == nil {
		out.PaidAt = preferTime(nil, self.FallbackPaidAt)
	}
	return out
}
