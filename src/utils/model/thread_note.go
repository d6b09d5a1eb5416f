package model

import "math/big"

// Note attached to an invoice
type ThreadNote struct {
	OrderId *big.Int `json:"orderId"`
	NoteId  *big.Int `json:"noteId"`
	Author  string   `json:"author"`
	Share   bool     `json:"share"`
	Message string   `json:"message"`

	// Open state is persisted separately on chain
	Opened bool `json:"opened"`

	// Not yet confirmed by the indexer
	Pending bool `json:"pending"`

	// Transaction that created the note, empty until sent
	TxHash string `json:"txHash,omitempty"`
}
