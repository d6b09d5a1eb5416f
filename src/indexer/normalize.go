package indexer

import (
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp-contracts/invoice-syncer/src/utils/eth"
	"github.com/warp-contracts/invoice-syncer/src/utils/model"
)

func parseBigInt(s Scalar) *big.Int {
	out, ok := new(big.Int).SetString(string(s), 10)
	if !ok {
		return nil
	}
	return out
}

// Wei to ether. Values that already carry a fraction are kept as decimals.
func parseAmount(s Scalar) string {
	if s == "" {
		return ""
	}
	if wei := parseBigInt(s); wei != nil {
		return eth.FormatEther(wei)
	}
	d, err := decimal.NewFromString(string(s))
	if err != nil {
		return ""
	}
	return d.String()
}

// Unix seconds or RFC3339. Zero, empty and the "Not Paid" label are absent.
func parseTime(s Scalar) *time.Time {
	raw := strings.TrimSpace(string(s))
	if raw == "" || strings.EqualFold(raw, model.NotPaid) {
		return nil
	}
	if seconds, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return model.UnixTime(seconds)
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t
	}
	return nil
}

func normalizeAddress(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeHash(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (self *rawInvoice) normalize(source model.Source, invoiceType model.InvoiceType, now time.Time) *model.Invoice {
	out := &model.Invoice{
		Id:            self.Id,
		OrderId:       parseBigInt(self.OrderId),
		Price:         parseAmount(self.Price),
		AmountPaid:    parseAmount(self.AmountPaid),
		CreatedAt:     parseTime(self.CreatedAt),
		PaidAt:        parseTime(self.PaidAt),
		ReleaseAt:     parseTime(self.ReleaseAt),
		InvalidateAt:  parseTime(self.InvalidateAt),
		ExpiresAt:     parseTime(self.ExpiresAt),
		CancelAt:      parseTime(self.CancelAt),
		Type:          invoiceType,
		Source:        source,
		Seller:        normalizeAddress(self.Seller),
		Buyer:         normalizeAddress(self.Buyer),
		PaymentTxHash: normalizeHash(self.PaymentTxHash),
		ReleaseHash:   normalizeHash(self.ReleaseHash),
		RefundTxHash:  normalizeHash(self.RefundTxHash),
	}
	out.Status = model.NormalizeRawStateAt(self.State, out.InvalidateAt, now)

	if len(self.History) > 0 {
		out.History = make([]model.HistoryEntry, 0, len(self.History))
		for _, entry := range self.History {
			out.History = append(out.History, model.HistoryEntry{
				Status: model.NormalizeRawStateAt(entry.Status, nil, now),
				Time:   parseTime(entry.Timestamp),
			})
		}
	}

	return out
}

func (self *rawInvoice) normalizeAll(source model.Source, now time.Time) *model.AllInvoice {
	invalidateAt := parseTime(self.InvalidateAt)
	return &model.AllInvoice{
		Id:           self.Id,
		OrderId:      parseBigInt(self.OrderId),
		Source:       source,
		Seller:       normalizeAddress(self.Seller),
		Buyer:        normalizeAddress(self.Buyer),
		Price:        parseAmount(self.Price),
		AmountPaid:   parseAmount(self.AmountPaid),
		Status:       model.NormalizeRawStateAt(self.State, invalidateAt, now),
		CreatedAt:    parseTime(self.CreatedAt),
		PaidAt:       parseTime(self.PaidAt),
		ReleaseAt:    parseTime(self.ReleaseAt),
		InvalidateAt: invalidateAt,
	}
}

func (self *rawAdminAction) normalize() *model.AdminAction {
	return &model.AdminAction{
		Id:        self.Id,
		OrderId:   parseBigInt(self.OrderId),
		Action:    self.Action,
		Actor:     normalizeAddress(self.Actor),
		TxHash:    normalizeHash(self.TxHash),
		Timestamp: parseTime(self.Timestamp),
	}
}

func normalizeNotes(data *notesData) []*model.ThreadNote {
	opened := make(map[string]bool, len(data.NoteOpenStates))
	for _, state := range data.NoteOpenStates {
		if state.Open {
			opened[string(state.NoteId)] = true
		}
	}

	out := make([]*model.ThreadNote, 0, len(data.Notes))
	for _, note := range data.Notes {
		out = append(out, &model.ThreadNote{
			OrderId: parseBigInt(note.OrderId),
			NoteId:  parseBigInt(note.NoteId),
			Author:  normalizeAddress(note.Author),
			Share:   note.Share,
			Message: note.Content,
			Opened:  opened[string(note.NoteId)],
		})
	}
	return out
}
