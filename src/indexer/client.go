package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/warp-contracts/invoice-syncer/src/utils/config"
	"github.com/warp-contracts/invoice-syncer/src/utils/logger"
	"github.com/warp-contracts/invoice-syncer/src/utils/model"
	"github.com/warp-contracts/invoice-syncer/src/utils/monitoring"
)

// Paginated queries to the GraphQL indexer. Public methods never fail,
// errors are logged and degrade to partial or cached results.
type Client struct {
	config  *config.Config
	log     *logrus.Entry
	monitor monitoring.Monitor

	client  *resty.Client
	guard   *Guard
	nowFunc func() time.Time
}

func NewClient(config *config.Config) (self *Client) {
	self = new(Client)
	self.config = config
	self.log = logger.NewSublogger("indexer-client")
	self.nowFunc = time.Now
	self.guard = NewGuard(config.Indexer.RateLimitCooldown)

	self.client = resty.New().
		SetTimeout(config.Indexer.RequestTimeout).
		SetHeader("User-Agent", "warp.cc/invoice-syncer").
		SetHeader("Content-Type", "application/json").
		OnAfterResponse(self.onStatusToError)

	if config.Indexer.ApiKey != "" {
		self.client.SetAuthToken(config.Indexer.ApiKey)
	}

	return
}

func (self *Client) WithMonitor(monitor monitoring.Monitor) *Client {
	self.monitor = monitor
	return self
}

func (self *Client) WithClock(nowFunc func() time.Time) *Client {
	self.nowFunc = nowFunc
	self.guard.WithClock(nowFunc)
	return self
}

func (self *Client) Guard() *Guard {
	return self.guard
}

func (self *Client) onStatusToError(c *resty.Client, resp *resty.Response) error {
	// Non-success status code turns into an error
	if resp.IsSuccess() {
		return nil
	}
	self.log.WithField("status", resp.StatusCode()).
		WithField("resp", string(resp.Body())).
		Debug("Bad response")
	return fmt.Errorf("unexpected status: %s", resp.Status())
}

func (self *Client) query(ctx context.Context, query string, variables map[string]interface{}, out interface{}) (err error) {
	if self.config.Indexer.Url == "" {
		return ErrIndexerUnavailable
	}

	self.monitor.GetReport().Indexer.State.Requests.Inc()

	response := new(graphQLResponse)
	_, err = self.client.R().
		SetContext(ctx).
		SetBody(graphQLRequest{Query: query, Variables: variables}).
		ForceContentType("application/json").
		SetResult(response).
		Post(self.config.Indexer.Url)
	if err != nil {
		return
	}

	if len(response.Errors) > 0 {
		messages := make([]string, 0, len(response.Errors))
		for _, e := range response.Errors {
			messages = append(messages, e.Message)
		}
		return fmt.Errorf("graphql: %s", strings.Join(messages, "; "))
	}

	if len(response.Data) == 0 || string(response.Data) == "null" {
		return errors.New("graphql: response without data")
	}

	return json.Unmarshal(response.Data, out)
}

func (self *Client) onError(log *logrus.Entry, err error) {
	self.monitor.GetReport().Indexer.Errors.Requests.Inc()

	if self.guard.Observe(err) {
		self.monitor.GetReport().Indexer.Errors.RateLimited.Inc()
		self.monitor.GetReport().Indexer.State.CooldownUntilTimestamp.Store(self.guard.NextAllowed().Unix())
		log.WithError(err).WithField("until", self.guard.NextAllowed()).Warn("Indexer rate limited, cooling down")
		return
	}

	if errors.Is(err, ErrIndexerUnavailable) {
		log.Warn("Indexer not configured, returning no data")
		return
	}

	log.WithError(err).Error("Indexer query failed, returning partial data")
}

func (self *Client) onSuccess(records int) {
	self.monitor.GetReport().Indexer.State.RecordsFetched.Add(uint64(records))
	self.monitor.GetReport().Indexer.State.LastSuccessfulFetchTimestamp.Store(self.nowFunc().Unix())
}

func (self *Client) cached(key string) (v interface{}, ok bool) {
	v, ok = self.guard.Cached(key)
	if ok {
		self.monitor.GetReport().Indexer.State.CachedResponses.Inc()
		self.log.WithField("key", key).Debug("Cooling down, returning cached result")
	}
	return
}

func (self *Client) pageSize() int {
	if self.config.Indexer.PageSize <= 0 {
		return 50
	}
	return self.config.Indexer.PageSize
}

type userCategory struct {
	name        string
	source      model.Source
	invoiceType model.InvoiceType
	skip        int
	done        bool
}

// All invoices the address takes part in, as seller or buyer of both contract families
func (self *Client) FetchUserInvoices(ctx context.Context, address string) []*model.Invoice {
	address = strings.ToLower(address)
	key := "user:" + address

	if cached, ok := self.cached(key); ok {
		return model.CloneInvoices(cached.([]*model.Invoice))
	}

	out, err := self.fetchUserInvoices(ctx, address)
	if err != nil {
		self.onError(self.log.WithField("viewer", address), err)
		return out
	}

	self.onSuccess(len(out))
	if len(out) > 0 {
		self.guard.Store(key, model.CloneInvoices(out))
	}
	return out
}

func (self *Client) fetchUserInvoices(ctx context.Context, address string) (out []*model.Invoice, err error) {
	categories := []*userCategory{
		{name: "seller", source: model.SourceSimple, invoiceType: model.InvoiceTypeSeller},
		{name: "buyer", source: model.SourceSimple, invoiceType: model.InvoiceTypeBuyer},
		{name: "issued", source: model.SourceMarketplace, invoiceType: model.InvoiceTypeIssuedInvoice},
		{name: "received", source: model.SourceMarketplace, invoiceType: model.InvoiceTypeReceivedInvoice},
	}
	pageSize := self.pageSize()

	for {
		variables := map[string]interface{}{"address": address}
		for _, category := range categories {
			first := pageSize
			if category.done {
				first = 0
			}
			variables[category.name+"First"] = first
			variables[category.name+"Skip"] = category.skip
		}

		data := new(userInvoicesData)
		err = self.query(ctx, userInvoicesQuery, variables, data)
		if err != nil {
			return
		}

		now := self.nowFunc()
		pages := [][]*rawInvoice{data.SellerInvoices, data.BuyerInvoices, data.IssuedInvoices, data.ReceivedInvoices}
		anyFull := false
		for i, category := range categories {
			if category.done {
				continue
			}
			for _, raw := range pages[i] {
				out = append(out, raw.normalize(category.source, category.invoiceType, now))
			}
			category.skip += len(pages[i])
			if len(pages[i]) < pageSize {
				category.done = true
			} else {
				anyFull = true
			}
		}

		if !anyFull {
			return
		}
	}
}

// Global admin view: all invoices of both families and the admin action log
func (self *Client) FetchAllInvoices(ctx context.Context) *model.AdminSnapshot {
	const key = "admin"

	if cached, ok := self.cached(key); ok {
		return cached.(*model.AdminSnapshot).Clone()
	}

	out, err := self.fetchAllInvoices(ctx)
	if err != nil {
		self.onError(self.log.WithField("query", "admin"), err)
		return out
	}

	self.onSuccess(len(out.Invoices) + len(out.Actions) + len(out.MarketplaceInvoices))
	if !out.IsEmpty() {
		self.guard.Store(key, out.Clone())
	}
	return out
}

func (self *Client) fetchAllInvoices(ctx context.Context) (out *model.AdminSnapshot, err error) {
	out = &model.AdminSnapshot{
		Invoices:            make([]*model.AllInvoice, 0),
		Actions:             make([]*model.AdminAction, 0),
		MarketplaceInvoices: make([]*model.AllInvoice, 0),
		FetchedAt:           self.nowFunc(),
	}

	pageSize := self.pageSize()
	var invoicesSkip, actionsSkip, marketplaceSkip int
	var invoicesDone, actionsDone, marketplaceDone bool

	first := func(done bool) int {
		if done {
			return 0
		}
		return pageSize
	}

	for page := 0; page < self.config.Indexer.MaxAdminPages; page++ {
		data := new(allInvoicesData)
		err = self.query(ctx, allInvoicesQuery, map[string]interface{}{
			"invoicesFirst":    first(invoicesDone),
			"invoicesSkip":     invoicesSkip,
			"actionsFirst":     first(actionsDone),
			"actionsSkip":      actionsSkip,
			"marketplaceFirst": first(marketplaceDone),
			"marketplaceSkip":  marketplaceSkip,
		}, data)
		if err != nil {
			return
		}

		now := self.nowFunc()
		if !invoicesDone {
			for _, raw := range data.Invoices {
				out.Invoices = append(out.Invoices, raw.normalizeAll(model.SourceSimple, now))
			}
			invoicesSkip += len(data.Invoices)
			invoicesDone = len(data.Invoices) < pageSize
		}
		if !actionsDone {
			for _, raw := range data.Actions {
				out.Actions = append(out.Actions, raw.normalize())
			}
			actionsSkip += len(data.Actions)
			actionsDone = len(data.Actions) < pageSize
		}
		if !marketplaceDone {
			for _, raw := range data.MarketplaceInvoices {
				out.MarketplaceInvoices = append(out.MarketplaceInvoices, raw.normalizeAll(model.SourceMarketplace, now))
			}
			marketplaceSkip += len(data.MarketplaceInvoices)
			marketplaceDone = len(data.MarketplaceInvoices) < pageSize
		}

		if invoicesDone && actionsDone && marketplaceDone {
			return
		}
	}

	self.log.WithField("pages", self.config.Indexer.MaxAdminPages).Warn("Admin fetch reached the page limit")
	return
}

// Notes of one invoice with their open state
func (self *Client) FetchNotes(ctx context.Context, orderId *big.Int) []*model.ThreadNote {
	key := "notes:" + model.OrderKey(orderId)

	if cached, ok := self.cached(key); ok {
		return cloneNotes(cached.([]*model.ThreadNote))
	}

	data := new(notesData)
	err := self.query(ctx, notesQuery, map[string]interface{}{"orderId": model.OrderKey(orderId)}, data)
	if err != nil {
		self.onError(self.log.WithField("order_id", model.OrderKey(orderId)), err)
		return nil
	}

	out := normalizeNotes(data)
	self.onSuccess(len(out))
	if len(out) > 0 {
		self.guard.Store(key, cloneNotes(out))
	}
	return out
}

func cloneNotes(in []*model.ThreadNote) []*model.ThreadNote {
	out := make([]*model.ThreadNote, len(in))
	for i, note := range in {
		n := *note
		out[i] = &n
	}
	return out
}
