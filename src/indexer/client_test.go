package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/warp-contracts/invoice-syncer/src/utils/config"
	"github.com/warp-contracts/invoice-syncer/src/utils/model"
	monitor_reconciler "github.com/warp-contracts/invoice-syncer/src/utils/monitoring/reconciler"
)

type ClientTestSuite struct {
	suite.Suite
	ctx     context.Context
	cancel  context.CancelFunc
	config  *config.Config
	monitor *monitor_reconciler.Monitor
	server  *httptest.Server
	client  *Client

	mtx      sync.Mutex
	requests []graphQLRequest
	handler  func(w http.ResponseWriter, req graphQLRequest, n int)

	now time.Time
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (s *ClientTestSuite) SetupTest() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 10*time.Second)
	s.requests = nil
	s.now = time.Unix(1700000000, 0)

	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphQLRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		s.Require().Nil(err)

		s.mtx.Lock()
		s.requests = append(s.requests, req)
		n := len(s.requests)
		handler := s.handler
		s.mtx.Unlock()

		w.Header().Set("Content-Type", "application/json")
		handler(w, req, n)
	}))

	s.config = config.Default()
	s.config.Indexer.Url = s.server.URL
	s.config.Indexer.RequestTimeout = 5 * time.Second

	s.monitor = monitor_reconciler.NewMonitor()
	s.client = NewClient(s.config).
		WithMonitor(s.monitor).
		WithClock(func() time.Time { return s.now })
}

func (s *ClientTestSuite) TearDownTest() {
	s.server.Close()
	s.cancel()
}

func (s *ClientTestSuite) numRequests() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return len(s.requests)
}

func rawInvoices(prefix string, n int, skip int) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, n)
	for i := 0; i < n; i++ {
		orderId := skip + i + 1
		out = append(out, map[string]interface{}{
			"id":         fmt.Sprintf("%s-%d", prefix, orderId),
			"orderId":    fmt.Sprintf("%d", orderId),
			"seller":     "0x00000000000000000000000000000000000000AA",
			"buyer":      "0x00000000000000000000000000000000000000bb",
			"price":      "1000000000000000000",
			"amountPaid": "0",
			"state":      "PAID",
			"createdAt":  orderId,
			"paidAt":     "Not Paid",
		})
	}
	return out
}

func respond(w http.ResponseWriter, data interface{}) {
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
}

func intVar(req graphQLRequest, name string) int {
	return int(req.Variables[name].(float64))
}

func (s *ClientTestSuite) TestUserPaginationTermination() {
	sizes := []int{50, 50, 30}
	s.handler = func(w http.ResponseWriter, req graphQLRequest, n int) {
		skip := intVar(req, "sellerSkip")
		s.Require().Equal((n-1)*50, skip)
		respond(w, map[string]interface{}{
			"sellerInvoices":   rawInvoices("s", sizes[n-1], skip),
			"buyerInvoices":    []interface{}{},
			"issuedInvoices":   []interface{}{},
			"receivedInvoices": []interface{}{},
		})
	}

	invoices := s.client.FetchUserInvoices(s.ctx, "0x00000000000000000000000000000000000000AA")
	s.Require().Equal(3, s.numRequests())
	s.Require().Len(invoices, 130)

	first := invoices[0]
	s.Require().Equal(model.InvoiceTypeSeller, first.Type)
	s.Require().Equal(model.SourceSimple, first.Source)
	s.Require().Equal("1.0", first.Price)
	s.Require().Equal("0.0", first.AmountPaid)
	s.Require().Nil(first.PaidAt)
	s.Require().Equal(int64(1), first.CreatedAt.Unix())
	s.Require().Equal("0x00000000000000000000000000000000000000aa", first.Seller)
	s.Require().Equal(model.InvoiceStatusPaid, first.Status)

	// Exhausted categories are no longer requested
	last := s.requests[2]
	s.Require().Equal(0, intVar(last, "buyerFirst"))
	s.Require().Equal(50, intVar(last, "sellerFirst"))
	s.Require().Equal("0x00000000000000000000000000000000000000aa", last.Variables["address"])
}

func (s *ClientTestSuite) TestUserCategoriesIndependent() {
	s.handler = func(w http.ResponseWriter, req graphQLRequest, n int) {
		data := map[string]interface{}{
			"sellerInvoices":   []interface{}{},
			"buyerInvoices":    []interface{}{},
			"issuedInvoices":   []interface{}{},
			"receivedInvoices": []interface{}{},
		}
		if n == 1 {
			data["buyerInvoices"] = rawInvoices("b", 10, 0)
			data["issuedInvoices"] = rawInvoices("i", 50, 0)
		} else {
			s.Require().Equal(50, intVar(req, "issuedSkip"))
			s.Require().Equal(10, intVar(req, "buyerSkip"))
			data["issuedInvoices"] = rawInvoices("i", 5, 50)
		}
		respond(w, data)
	}

	invoices := s.client.FetchUserInvoices(s.ctx, "0xbb")
	s.Require().Equal(2, s.numRequests())
	s.Require().Len(invoices, 65)

	types := make(map[model.InvoiceType]int)
	for _, invoice := range invoices {
		types[invoice.Type]++
	}
	s.Require().Equal(10, types[model.InvoiceTypeBuyer])
	s.Require().Equal(55, types[model.InvoiceTypeIssuedInvoice])
}

func (s *ClientTestSuite) TestPartialResultsOnError() {
	s.handler = func(w http.ResponseWriter, req graphQLRequest, n int) {
		if n == 2 {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"errors": []map[string]interface{}{{"message": "indexing error"}},
			})
			return
		}
		respond(w, map[string]interface{}{
			"sellerInvoices":   rawInvoices("s", 50, 0),
			"buyerInvoices":    []interface{}{},
			"issuedInvoices":   []interface{}{},
			"receivedInvoices": []interface{}{},
		})
	}

	invoices := s.client.FetchUserInvoices(s.ctx, "0xaa")
	s.Require().Equal(2, s.numRequests())
	s.Require().Len(invoices, 50)
	s.Require().Equal(uint64(1), s.monitor.GetReport().Indexer.Errors.Requests.Load())
	s.Require().True(s.client.Guard().NextAllowed().IsZero())
}

func (s *ClientTestSuite) TestRateLimitGating() {
	s.handler = func(w http.ResponseWriter, req graphQLRequest, n int) {
		if n == 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		respond(w, map[string]interface{}{
			"sellerInvoices":   rawInvoices("s", 3, 0),
			"buyerInvoices":    []interface{}{},
			"issuedInvoices":   []interface{}{},
			"receivedInvoices": []interface{}{},
		})
	}

	invoices := s.client.FetchUserInvoices(s.ctx, "0xaa")
	s.Require().Len(invoices, 3)

	// Rate limited
	invoices = s.client.FetchUserInvoices(s.ctx, "0xaa")
	s.Require().Len(invoices, 0)
	s.Require().Equal(2, s.numRequests())
	s.Require().Equal(s.now.Add(15*time.Second), s.client.Guard().NextAllowed())

	// Within the cooldown the cached result is returned
	s.now = s.now.Add(time.Second)
	invoices = s.client.FetchUserInvoices(s.ctx, "0xaa")
	s.Require().Len(invoices, 3)
	s.Require().Equal(2, s.numRequests())
	s.Require().Equal(uint64(1), s.monitor.GetReport().Indexer.State.CachedResponses.Load())

	// Cooldown is over
	s.now = s.now.Add(15 * time.Second)
	invoices = s.client.FetchUserInvoices(s.ctx, "0xaa")
	s.Require().Len(invoices, 3)
	s.Require().Equal(3, s.numRequests())
}

func (s *ClientTestSuite) TestRateLimitWithoutCacheStillRequests() {
	s.handler = func(w http.ResponseWriter, req graphQLRequest, n int) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"errors": []map[string]interface{}{{"message": "Too Many Requests"}},
		})
	}

	s.client.FetchUserInvoices(s.ctx, "0xaa")
	s.now = s.now.Add(time.Second)
	s.client.FetchUserInvoices(s.ctx, "0xaa")
	s.Require().Equal(2, s.numRequests())
	s.Require().Equal(uint64(2), s.monitor.GetReport().Indexer.Errors.RateLimited.Load())
}

func (s *ClientTestSuite) TestAdminPageCap() {
	s.handler = func(w http.ResponseWriter, req graphQLRequest, n int) {
		s.Require().True(strings.Contains(req.Query, "adminActions"))
		respond(w, map[string]interface{}{
			"invoices": rawInvoices("s", 50, intVar(req, "invoicesSkip")),
			"actions": []map[string]interface{}{
				{"id": fmt.Sprintf("a-%d", n), "orderId": "1", "action": "RESOLVE", "actor": "0xCC", "txHash": "0xAB", "timestamp": "100"},
			},
			"marketplaceInvoices": []interface{}{},
		})
	}

	snapshot := s.client.FetchAllInvoices(s.ctx)
	s.Require().Equal(s.config.Indexer.MaxAdminPages, s.numRequests())
	s.Require().Len(snapshot.Invoices, 50*s.config.Indexer.MaxAdminPages)
	s.Require().Len(snapshot.Actions, 1)
	s.Require().Equal("0xcc", snapshot.Actions[0].Actor)
	s.Require().Equal(int64(100), snapshot.Actions[0].Timestamp.Unix())
	s.Require().Empty(snapshot.MarketplaceInvoices)
}

func (s *ClientTestSuite) TestCachedAdminSnapshotIsNotShared() {
	s.handler = func(w http.ResponseWriter, req graphQLRequest, n int) {
		if n == 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		respond(w, map[string]interface{}{
			"invoices": rawInvoices("s", 2, 0),
			"actions": []map[string]interface{}{
				{"id": "a-1", "orderId": "1", "action": "RESOLVE", "actor": "0xCC", "txHash": "0xAB", "timestamp": "100"},
			},
			"marketplaceInvoices": []interface{}{},
		})
	}

	first := s.client.FetchAllInvoices(s.ctx)
	s.Require().Len(first.Invoices, 2)
	first.Invoices[0].Status = "TAMPERED"
	first.Actions = nil

	// Rate limited, the next call within the cooldown is served from cache
	s.client.FetchAllInvoices(s.ctx)
	s.now = s.now.Add(time.Second)

	cached := s.client.FetchAllInvoices(s.ctx)
	s.Require().Equal(2, s.numRequests())
	s.Require().Len(cached.Invoices, 2)
	s.Require().NotEqual(model.InvoiceStatus("TAMPERED"), cached.Invoices[0].Status)
	s.Require().Len(cached.Actions, 1)

	cached.Invoices[1].Status = "TAMPERED"
	again := s.client.FetchAllInvoices(s.ctx)
	s.Require().NotEqual(model.InvoiceStatus("TAMPERED"), again.Invoices[1].Status)
}

func (s *ClientTestSuite) TestNotes() {
	s.handler = func(w http.ResponseWriter, req graphQLRequest, n int) {
		s.Require().Equal("7", req.Variables["orderId"])
		respond(w, map[string]interface{}{
			"notes": []map[string]interface{}{
				{"id": "7-1", "orderId": "7", "noteId": "1", "author": "0xAA", "share": true, "content": "hello"},
				{"id": "7-2", "orderId": "7", "noteId": 2, "author": "0xbb", "share": false, "content": "world"},
			},
			"noteOpenStates": []map[string]interface{}{
				{"noteId": "1", "open": true},
			},
		})
	}

	notes := s.client.FetchNotes(s.ctx, big.NewInt(7))
	s.Require().Len(notes, 2)
	s.Require().True(notes[0].Opened)
	s.Require().Equal("0xaa", notes[0].Author)
	s.Require().False(notes[1].Opened)
	s.Require().Equal(int64(2), notes[1].NoteId.Int64())
}

func (s *ClientTestSuite) TestUnconfigured() {
	s.config.Indexer.Url = ""
	s.handler = func(w http.ResponseWriter, req graphQLRequest, n int) {}

	s.Require().Empty(s.client.FetchUserInvoices(s.ctx, "0xaa"))
	s.Require().True(s.client.FetchAllInvoices(s.ctx).IsEmpty())
	s.Require().Equal(0, s.numRequests())
}
