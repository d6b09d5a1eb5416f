package model

import "time"

// Display status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusAwaitingPayment  InvoiceStatus = "AWAITING PAYMENT"
	InvoiceStatusCreated          InvoiceStatus = "CREATED"
	InvoiceStatusPaid             InvoiceStatus = "PAID"
	InvoiceStatusAccepted         InvoiceStatus = "ACCEPTED"
	InvoiceStatusReleased         InvoiceStatus = "RELEASED"
	InvoiceStatusRefunded         InvoiceStatus = "REFUNDED"
	InvoiceStatusCanceled         InvoiceStatus = "CANCELED"
	InvoiceStatusExpired          InvoiceStatus = "EXPIRED"
	InvoiceStatusDisputed         InvoiceStatus = "DISPUTED"
	InvoiceStatusDisputeResolved  InvoiceStatus = "DISPUTE_RESOLVED"
	InvoiceStatusDisputeDismissed InvoiceStatus = "DISPUTE_DISMISSED"
	InvoiceStatusDisputeSettled   InvoiceStatus = "DISPUTE_SETTLED"
)

// Raw state tokens reported by contracts and the indexer that aren't display statuses
const (
	RawStateInitiated = "INITIATED"
	RawStateRejected  = "REJECTED"
)

// Lifecycle order, a status may only move to the right
var InvoiceStatusOrder = []InvoiceStatus{
	InvoiceStatusAwaitingPayment,
	InvoiceStatusCreated,
	InvoiceStatusPaid,
	InvoiceStatusAccepted,
	InvoiceStatusReleased,
	InvoiceStatusRefunded,
	InvoiceStatusCanceled,
	InvoiceStatusExpired,
	InvoiceStatusDisputed,
	InvoiceStatusDisputeResolved,
	InvoiceStatusDisputeDismissed,
	InvoiceStatusDisputeSettled,
}

// Position in InvoiceStatusOrder. Empty status is -1, unknown tokens rank
// after every known status.
func (self InvoiceStatus) Rank() int {
	if self == "" {
		return -1
	}
	for i, s := range InvoiceStatusOrder {
		if s == self {
			return i
		}
	}
	// FIXME: unknown tokens always win a merge. Confirm with the contract and indexer owners
	// whether new states should be treated as progress or rejected.
	return len(InvoiceStatusOrder)
}

func (self InvoiceStatus) IsKnown() bool {
	r := self.Rank()
	return r >= 0 && r < len(InvoiceStatusOrder)
}

// Never regresses, ties go to the incoming value
func MergeStatus(existing, incoming InvoiceStatus) InvoiceStatus {
	if incoming.Rank() >= existing.Rank() {
		return incoming
	}
	return existing
}

// Maps a raw contract/indexer state to a display status
func NormalizeRawState(raw string, voidAt *time.Time) InvoiceStatus {
	return NormalizeRawStateAt(raw, voidAt, time.Now())
}

func NormalizeRawStateAt(raw string, voidAt *time.Time, now time.Time) InvoiceStatus {
	switch raw {
	case string(InvoiceStatusCreated):
		if voidAt != nil && now.After(*voidAt) {
			return InvoiceStatusExpired
		}
		return InvoiceStatusAwaitingPayment
	case RawStateInitiated:
		return InvoiceStatusAwaitingPayment
	case RawStateRejected:
		return InvoiceStatusRefunded
	}
	return InvoiceStatus(raw)
}
