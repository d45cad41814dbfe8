// Package mt5bridge implements broker.Gateway against an MT5 REST bridge: a
// small HTTP shim running next to the MetaTrader 5 terminal that exposes
// positions, deal history, ticks and order submission. The guardian host
// talks to it over the loopback or LAN.
package mt5bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/rustyeddy/sentinel/broker"
	"github.com/rustyeddy/sentinel/market"
)

// RetcodeDone is the MT5 trade return code for a completed request.
const RetcodeDone = 10009

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	connected atomic.Bool
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Connect verifies the bridge is reachable and a terminal account is logged
// in. Safe to call repeatedly; it holds no per-call resources.
func (c *Client) Connect(ctx context.Context) error {
	var acct accountResponse
	if err := c.get(ctx, "/api/account", nil, &acct); err != nil {
		c.connected.Store(false)
		return fmt.Errorf("%w: %v", broker.ErrUnavailable, err)
	}
	if acct.Login == 0 {
		c.connected.Store(false)
		return fmt.Errorf("%w: bridge has no logged-in account", broker.ErrUnavailable)
	}
	c.connected.Store(true)
	return nil
}

func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

func (c *Client) Close() error {
	c.connected.Store(false)
	c.httpClient.CloseIdleConnections()
	return nil
}

type accountResponse struct {
	Login    int64   `json:"login"`
	Server   string  `json:"server"`
	Currency string  `json:"currency"`
	Balance  float64 `json:"balance"`
}

type positionJSON struct {
	Ticket       int64   `json:"ticket"`
	Symbol       string  `json:"symbol"`
	Type         string  `json:"type"` // "BUY" or "SELL"
	Volume       float64 `json:"volume"`
	PriceOpen    float64 `json:"price_open"`
	PriceCurrent float64 `json:"price_current"`
	Profit       float64 `json:"profit"`
	Time         int64   `json:"time"` // unix seconds
}

func (c *Client) ListOpenPositions(ctx context.Context, symbolFilter string) ([]market.Position, error) {
	params := url.Values{}
	if symbolFilter != "" {
		params.Set("symbol", symbolFilter)
	}

	var raw []positionJSON
	if err := c.get(ctx, "/api/positions", params, &raw); err != nil {
		return nil, err
	}

	out := make([]market.Position, 0, len(raw))
	for _, p := range raw {
		side := market.Long
		if p.Type == "SELL" {
			side = market.Short
		}
		out = append(out, market.Position{
			Ticket:       p.Ticket,
			Symbol:       p.Symbol,
			Side:         side,
			Volume:       p.Volume,
			OpenPrice:    p.PriceOpen,
			CurrentPrice: p.PriceCurrent,
			Profit:       p.Profit,
			OpenTime:     time.Unix(p.Time, 0).UTC(),
		})
	}
	return out, nil
}

type dealJSON struct {
	Ticket     int64   `json:"ticket"`
	Symbol     string  `json:"symbol"`
	Type       string  `json:"type"` // "BUY", "SELL" or "BALANCE"
	Volume     float64 `json:"volume"`
	Price      float64 `json:"price"`
	Profit     float64 `json:"profit"`
	Swap       float64 `json:"swap"`
	Commission float64 `json:"commission"`
	Time       int64   `json:"time"`
}

func (c *Client) ListClosedDeals(ctx context.Context, since, until time.Time) ([]market.Deal, error) {
	params := url.Values{}
	params.Set("from", since.UTC().Format(time.RFC3339))
	params.Set("to", until.UTC().Format(time.RFC3339))

	var raw []dealJSON
	if err := c.get(ctx, "/api/deals", params, &raw); err != nil {
		return nil, err
	}

	out := make([]market.Deal, 0, len(raw))
	for _, d := range raw {
		var dt market.DealType
		switch d.Type {
		case "BUY":
			dt = market.DealBuy
		case "SELL":
			dt = market.DealSell
		default:
			dt = market.DealBalance
		}
		out = append(out, market.Deal{
			Ticket:     d.Ticket,
			Symbol:     d.Symbol,
			Type:       dt,
			Volume:     d.Volume,
			Price:      d.Price,
			Profit:     d.Profit,
			Swap:       d.Swap,
			Commission: d.Commission,
			Time:       time.Unix(d.Time, 0).UTC(),
		})
	}
	return out, nil
}

type tickJSON struct {
	Symbol string  `json:"symbol"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Time   int64   `json:"time"`
}

func (c *Client) CurrentTick(ctx context.Context, symbol string) (market.Tick, error) {
	var raw tickJSON
	err := c.get(ctx, "/api/tick/"+url.PathEscape(symbol), nil, &raw)
	if err != nil {
		return market.Tick{}, err
	}
	if raw.Bid == 0 && raw.Ask == 0 {
		return market.Tick{}, fmt.Errorf("%w: %s", broker.ErrNoPriceData, symbol)
	}
	return market.Tick{
		Symbol: raw.Symbol,
		Bid:    raw.Bid,
		Ask:    raw.Ask,
		Time:   time.Unix(raw.Time, 0).UTC(),
	}, nil
}

type closeRequestJSON struct {
	Ticket    int64   `json:"ticket"`
	Symbol    string  `json:"symbol"`
	Volume    float64 `json:"volume"`
	Type      string  `json:"type"`
	Price     float64 `json:"price"`
	Deviation int     `json:"deviation"`
	Magic     int     `json:"magic"`
	Comment   string  `json:"comment"`
}

type closeResponseJSON struct {
	Retcode int    `json:"retcode"`
	Comment string `json:"comment"`
}

func (c *Client) SubmitCloseOrder(ctx context.Context, req broker.CloseOrderRequest) (broker.CloseResult, error) {
	body := closeRequestJSON{
		Ticket:    req.Ticket,
		Symbol:    req.Symbol,
		Volume:    req.Volume,
		Type:      req.Side.String(),
		Price:     req.Price,
		Deviation: req.Deviation,
		Magic:     req.Magic,
		Comment:   req.Comment,
	}

	var resp closeResponseJSON
	if err := c.post(ctx, "/api/close", body, &resp); err != nil {
		return broker.CloseResult{}, err
	}

	result := broker.CloseResult{
		Ticket:  req.Ticket,
		Code:    resp.Retcode,
		Comment: resp.Comment,
	}
	if resp.Retcode != RetcodeDone {
		return result, &broker.RejectedError{
			Ticket:  req.Ticket,
			Code:    resp.Retcode,
			Comment: resp.Comment,
		}
	}
	return result, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.connected.Store(false)
		return fmt.Errorf("%w: %v", broker.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return broker.ErrNoPriceData
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("bridge returned %d: %s", resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode bridge response: %w", err)
	}
	return nil
}
