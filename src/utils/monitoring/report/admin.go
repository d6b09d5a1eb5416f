package report

import (
	"go.uber.org/atomic"
)

type AdminErrors struct {
	EmptyRefreshes atomic.Uint64 `json:"empty_refreshes"`
}

type AdminState struct {
	Refreshes            atomic.Uint64 `json:"refreshes"`
	LastRefreshTimestamp atomic.Int64  `json:"last_refresh_timestamp"`
	Invoices             atomic.Int64  `json:"invoices"`
	Actions              atomic.Int64  `json:"actions"`
	MarketplaceInvoices  atomic.Int64  `json:"marketplace_invoices"`
}

type AdminReport struct {
	State  AdminState  `json:"state"`
	Errors AdminErrors `json:"errors"`
}
