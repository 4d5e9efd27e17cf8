package coinbase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"
)

const statusTimeout = 30 * time.Second

type product struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type statusMessage struct {
	Type     string    `json:"type"`
	Products []product `json:"products"`
}

// OnlineSymbols queries the catalog of tradable products and returns the
// identifiers whose status is "online", sorted so that partitioning across
// connections is deterministic for the same universe. The REST catalog is
// tried first; the feed's status channel serves as fallback. Failure here is
// fatal to the caller since the connection pool cannot be sized without it.
func (c *Client) OnlineSymbols(ctx context.Context) ([]string, error) {
	symbols, restErr := c.symbolsFromREST(ctx)
	if restErr == nil {
		return symbols, nil
	}
	c.logger.WithError(restErr).Warn("product catalog request failed, falling back to status channel")

	symbols, wsErr := c.symbolsFromStatusChannel(ctx)
	if wsErr != nil {
		return nil, errors.Join(restErr, wsErr)
	}
	return symbols, nil
}

func (c *Client) symbolsFromREST(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.ProductsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build products request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch products: unexpected status %s", resp.Status)
	}

	var products []product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return onlineIDs(products)
}

func (c *Client) symbolsFromStatusChannel(ctx context.Context) ([]string, error) {
	statusCtx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	conn, resp, err := c.dialer.DialContext(statusCtx, c.cfg.FeedURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.cfg.FeedURL, err)
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	sub := subscribeRequest{
		Type:     "subscribe",
		Channels: []channelRequest{{Name: "status"}},
	}
	_ = conn.SetWriteDeadline(time.Now().Add(subscribeTimeout))
	if err := conn.WriteJSON(sub); err != nil {
		return nil, fmt.Errorf("subscribe status channel: %w", err)
	}

	deadline, _ := statusCtx.Deadline()
	_ = conn.SetReadDeadline(deadline)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("read status message: %w", err)
		}
		var msg statusMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type != "status" {
			continue
		}
		return onlineIDs(msg.Products)
	}
}

func onlineIDs(products []product) ([]string, error) {
	symbols := make([]string, 0, len(products))
	for _, p := range products {
		if p.Status == "online" && p.ID != "" {
			symbols = append(symbols, p.ID)
		}
	}
	if len(symbols) == 0 {
		return nil, errors.New("no online products in catalog")
	}
	sort.Strings(symbols)
	return symbols, nil
}
