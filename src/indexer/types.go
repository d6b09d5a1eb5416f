package indexer

import (
	"bytes"
	"encoding/json"
	"strings"
)

// JSON value sent by the indexer either as a string or as a number
type Scalar string

func (self *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*self = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*self = Scalar(strings.TrimSpace(s))
		return nil
	}
	*self = Scalar(data)
	return nil
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

type rawHistoryEntry struct {
	Status    string `json:"status"`
	Timestamp Scalar `json:"timestamp"`
}

type rawInvoice struct {
	Id            string            `json:"id"`
	OrderId       Scalar            `json:"orderId"`
	Seller        string            `json:"seller"`
	Buyer         string            `json:"buyer"`
	Price         Scalar            `json:"price"`
	AmountPaid    Scalar            `json:"amountPaid"`
	State         string            `json:"state"`
	CreatedAt     Scalar            `json:"createdAt"`
	PaidAt        Scalar            `json:"paidAt"`
	ReleaseAt     Scalar            `json:"releaseAt"`
	InvalidateAt  Scalar            `json:"invalidateAt"`
	ExpiresAt     Scalar            `json:"expiresAt"`
	CancelAt      Scalar            `json:"cancelAt"`
	PaymentTxHash string            `json:"paymentTxHash"`
	ReleaseHash   string            `json:"releaseHash"`
	RefundTxHash  string            `json:"refundTxHash"`
	History       []rawHistoryEntry `json:"history"`
}

type rawAdminAction struct {
	Id        string `json:"id"`
	OrderId   Scalar `json:"orderId"`
	Action    string `json:"action"`
	Actor     string `json:"actor"`
	TxHash    string `json:"txHash"`
	Timestamp Scalar `json:"timestamp"`
}

type rawNote struct {
	Id      string `json:"id"`
	OrderId Scalar `json:"orderId"`
	NoteId  Scalar `json:"noteId"`
	Author  string `json:"author"`
	Share   bool   `json:"share"`
	Content string `json:"content"`
}

type rawNoteOpenState struct {
	NoteId Scalar `json:"noteId"`
	Open   bool   `json:"open"`
}

type userInvoicesData struct {
	SellerInvoices   []*rawInvoice `json:"sellerInvoices"`
	BuyerInvoices    []*rawInvoice `json:"buyerInvoices"`
	IssuedInvoices   []*rawInvoice `json:"issuedInvoices"`
	ReceivedInvoices []*rawInvoice `json:"receivedInvoices"`
}

type allInvoicesData struct {
	Invoices            []*rawInvoice     `json:"invoices"`
	Actions             []*rawAdminAction `json:"actions"`
	MarketplaceInvoices []*rawInvoice     `json:"marketplaceInvoices"`
}

type notesData struct {
	Notes          []*rawNote          `json:"notes"`
	NoteOpenStates []*rawNoteOpenState `json:"noteOpenStates"`
}
