package reconcile

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/warp-contracts/invoice-syncer/src/utils/model"
)

func at(seconds int64) *time.Time {
	t := time.Unix(seconds, 0).UTC()
	return &t
}

func invoice(orderId int64, typ model.InvoiceType, source model.Source, status model.InvoiceStatus) *model.Invoice {
	return &model.Invoice{
		Id:      big.NewInt(orderId).String(),
		OrderId: big.NewInt(orderId),
		Status:  status,
		Type:    typ,
		Source:  source,
	}
}

func TestMergeInvoiceKeepsExistingOverPlaceholders(t *testing.T) {
	existing := invoice(1, model.InvoiceTypeSeller, model.SourceSimple, model.InvoiceStatusPaid)
	existing.AmountPaid = "1.5"
	existing.PaidAt = at(100)
	existing.Buyer = "0x00000000000000000000000000000000000000bb"
	existing.PaymentTxHash = "0x01"

	incoming := invoice(1, model.InvoiceTypeSeller, model.SourceSimple, model.InvoiceStatusAwaitingPayment)
	incoming.AmountPaid = "0.0"
	incoming.Buyer = zeroAddress
	incoming.PaymentTxHash = zeroHash
	incoming.ReleaseAt = at(200)

	merged := MergeInvoice(existing, incoming)
	require.Equal(t, model.InvoiceStatusPaid, merged.Status)
	require.Equal(t, "1.5", merged.AmountPaid)
	require.Equal(t, at(100), merged.PaidAt)
	require.Equal(t, existing.Buyer, merged.Buyer)
	require.Equal(t, "0x01", merged.PaymentTxHash)
	require.Equal(t, at(200), merged.ReleaseAt)

	// Inputs are untouched
	require.Nil(t, existing.ReleaseAt)
	require.Equal(t, model.InvoiceStatusAwaitingPayment, incoming.Status)
}

func TestMergeInvoicePrefersIncomingValues(t *testing.T) {
	existing := invoice(1, model.InvoiceTypeBuyer, model.SourceSimple, model.InvoiceStatusPaid)
	existing.AmountPaid = "1.0"
	existing.History = []model.HistoryEntry{{Status: model.InvoiceStatusPaid, Time: at(10)}}

	incoming := invoice(1, model.InvoiceTypeBuyer, model.SourceSimple, model.InvoiceStatusReleased)
	incoming.AmountPaid = "2.0"
	incoming.ReleaseHash = "0xrelease"
	incoming.History = []model.HistoryEntry{
		{Status: model.InvoiceStatusPaid, Time: at(10)},
		{Status: model.InvoiceStatusReleased, Time: at(20)},
	}

	merged := MergeInvoice(existing, incoming)
	require.Equal(t, model.InvoiceStatusReleased, merged.Status)
	require.Equal(t, "2.0", merged.AmountPaid)
	require.Equal(t, "0xrelease", merged.ReleaseHash)
	require.Len(t, merged.History, 2)

	require.Equal(t, merged, MergeInvoice(merged, incoming))
}

func TestMergeStatusNeverRegresses(t *testing.T) {
	statuses := append([]model.InvoiceStatus{"", "SOMETHING_NEW"}, model.InvoiceStatusOrder...)
	for _, existing := range statuses {
		for _, incoming := range statuses {
			a := invoice(1, model.InvoiceTypeSeller, model.SourceSimple, existing)
			b := invoice(1, model.InvoiceTypeSeller, model.SourceSimple, incoming)
			merged := MergeInvoice(a, b)
			require.GreaterOrEqual(t, merged.Status.Rank(), existing.Rank(), "%q <- %q", existing, incoming)
		}
	}
}

func TestEventPatchFallbackPaidAt(t *testing.T) {
	existing := invoice(1, model.InvoiceTypeSeller, model.SourceSimple, model.InvoiceStatusAwaitingPayment)

	patch := &EventPatch{
		OrderId:        "1",
		Source:         model.SourceSimple,
		Status:         model.InvoiceStatusPaid,
		AmountPaid:     "1.0",
		FallbackPaidAt: at(50),
	}
	patched := patch.apply(existing)
	require.Equal(t, model.InvoiceStatusPaid, patched.Status)
	require.Equal(t, at(50), patched.PaidAt)

	// Known payment time wins over the fallback
	patched.PaidAt = at(40)
	require.Equal(t, at(40), patch.apply(patched).PaidAt)

	// Late event doesn't move the status back
	patched.Status = model.InvoiceStatusReleased
	require.Equal(t, model.InvoiceStatusReleased, patch.apply(patched).Status)
}
