package chain

import (
	"strconv"

	"github.com/warp-contracts/invoice-syncer/src/utils/model"
)

const (
	EventInvoiceCreated    = "InvoiceCreated"
	EventInvoicePaid       = "InvoicePaid"
	EventInvoiceAccepted   = "InvoiceAccepted"
	EventInvoiceRejected   = "InvoiceRejected"
	EventInvoiceReleased   = "InvoiceReleased"
	EventInvoiceRefunded   = "InvoiceRefunded"
	EventInvoiceCanceled   = "InvoiceCanceled"
	EventDisputeCreated    = "DisputeCreated"
	EventDisputeResolved   = "DisputeResolved"
	EventDisputeDismissed  = "DisputeDismissed"
	EventDisputeSettled    = "DisputeSettled"
	EventUpdateReleaseTime = "UpdateReleaseTime"
)

var commonEvents = []string{
	EventInvoiceCreated,
	EventInvoicePaid,
	EventInvoiceAccepted,
	EventInvoiceRejected,
	EventInvoiceReleased,
	EventInvoiceRefunded,
	EventInvoiceCanceled,
	EventDisputeCreated,
	EventDisputeResolved,
	EventDisputeDismissed,
	EventDisputeSettled,
}

// Events watched on the contract of the given source
func EventNames(source model.Source) []string {
	out := make([]string, len(commonEvents), len(commonEvents)+1)
	copy(out, commonEvents)
	if source == model.SourceMarketplace {
		out = append(out, EventUpdateReleaseTime)
	}
	return out
}

var eventStatus = map[string]model.InvoiceStatus{
	EventInvoicePaid:      model.InvoiceStatusPaid,
	EventInvoiceAccepted:  model.InvoiceStatusAccepted,
	EventInvoiceRejected:  model.InvoiceStatusRefunded,
	EventInvoiceReleased:  model.InvoiceStatusReleased,
	EventInvoiceRefunded:  model.InvoiceStatusRefunded,
	EventInvoiceCanceled:  model.InvoiceStatusCanceled,
	EventDisputeCreated:   model.InvoiceStatusDisputed,
	EventDisputeResolved:  model.InvoiceStatusDisputeResolved,
	EventDisputeDismissed: model.InvoiceStatusDisputeDismissed,
	EventDisputeSettled:   model.InvoiceStatusDisputeSettled,
}

// Status an event moves the invoice to. False for events that don't change status.
func EventStatus(name string) (status model.InvoiceStatus, ok bool) {
	status, ok = eventStatus[name]
	return
}

// On-chain status enum, index is the uint8 value stored by the payment processors
var OnchainStatusNames = []string{
	string(model.InvoiceStatusCreated),
	string(model.InvoiceStatusPaid),
	string(model.InvoiceStatusAccepted),
	model.RawStateRejected,
	string(model.InvoiceStatusRefunded),
	string(model.InvoiceStatusReleased),
	string(model.InvoiceStatusCanceled),
	string(model.InvoiceStatusDisputed),
	string(model.InvoiceStatusDisputeResolved),
	string(model.InvoiceStatusDisputeDismissed),
	string(model.InvoiceStatusDisputeSettled),
	string(model.InvoiceStatusExpired),
}

// Raw state token of an on-chain status value, unknown values are passed as their number
func OnchainStatusName(status uint8) string {
	if int(status) < len(OnchainStatusNames) {
		return OnchainStatusNames[status]
	}
	return "UNKNOWN_" + strconv.Itoa(int(status))
}
