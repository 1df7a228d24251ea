package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"dealdeck/internal/domain"
	"dealdeck/internal/feed"
	"dealdeck/internal/ports"
)

// Client reads offers from an upstream deals API that serves raw offer
// records as a JSON array, or wrapped as {"items": [...]}.
type Client struct {
	http *resty.Client
	log  *slog.Logger
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	Retries int
	// RetryWait is the initial back-off between attempts.
	RetryWait time.Duration
}

func New(opts Options, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 200 * time.Millisecond
	}
	c := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(8*opts.RetryWait).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || (r != nil && r.StatusCode() >= http.StatusInternalServerError)
		})
	return &Client{http: c, log: log}
}

func (c *Client) FetchOffers(ctx context.Context, q ports.OfferQuery) ([]domain.Offer, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(queryParams(q)).
		Get("/deals")
	if err != nil {
		return nil, fmt.Errorf("upstream deals: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("upstream deals: status %d", resp.StatusCode())
	}
	offers, skipped, err := decodeList(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("upstream deals: %w", err)
	}
	if skipped > 0 {
		c.log.Warn("upstream returned malformed offers", "skipped", skipped)
	}
	return offers, nil
}

func (c *Client) GetOffer(ctx context.Context, id string) (domain.Offer, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Get("/deals/{id}")
	if err != nil {
		return domain.Offer{}, fmt.Errorf("upstream deal: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return domain.Offer{}, ports.ErrNotFound
	}
	if resp.IsError() {
		return domain.Offer{}, fmt.Errorf("upstream deal: status %d", resp.StatusCode())
	}
	var o domain.Offer
	if err := json.Unmarshal(resp.Body(), &o); err != nil {
		return domain.Offer{}, fmt.Errorf("upstream deal: %w", err)
	}
	return o.Normalize(), nil
}

func queryParams(q ports.OfferQuery) map[string]string {
	p := map[string]string{"offset": strconv.Itoa(q.Offset)}
	if q.Limit > 0 {
		p["limit"] = strconv.Itoa(q.Limit)
	}
	// The upstream only orders by recency or stored total.
	if q.Sort == feed.SortTotalAsc {
		p["sort"] = "tco_asc"
	} else {
		p["sort"] = "latest"
	}
	f := q.Filter
	for k, v := range map[string]string{
		"model":     f.Model,
		"carrier":   f.Carrier,
		"city":      f.City,
		"move_type": f.MoveType,
		"contract":  f.Contract,
		"payment":   f.Payment,
		"channel":   f.Channel,
	} {
		if v != "" {
			p[k] = v
		}
	}
	return p
}

func decodeList(body []byte) ([]domain.Offer, int, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '{' {
		var wrapped struct {
			Items json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, 0, err
		}
		if len(wrapped.Items) == 0 {
			return []domain.Offer{}, 0, nil
		}
		body = wrapped.Items
	}
	return domain.DecodeOffers(body)
}
