package model

import (
	"encoding/json"
	"time"
)

// Sorted view of all invoices tracked for a viewer, published after each change
type InvoiceSnapshot struct {
	Viewer    string     `json:"viewer"`
	Session   string     `json:"session"`
	Invoices  []*Invoice `json:"invoices"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (self InvoiceSnapshot) MarshalJSON() ([]byte, error) {
	type InvoiceSnapshotAlias InvoiceSnapshot
	return json.Marshal(&struct {
		*InvoiceSnapshotAlias
	}{InvoiceSnapshotAlias: (*InvoiceSnapshotAlias)(&self)})
}

func (self InvoiceSnapshot) MarshalBinary() ([]byte, error) {
	return self.MarshalJSON()
}
