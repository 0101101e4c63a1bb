package stable

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"
)

// StaticFeed serves a fixed price with a controllable timestamp. It backs
// deterministic deployments and tests.
type StaticFeed struct {
	mu        sync.RWMutex
	price     *big.Int
	updatedAt time.Time
}

// NewStaticFeed returns a feed that reports the given 8-decimal price.
func NewStaticFeed(price *big.Int, updatedAt time.Time) *StaticFeed {
	feed := &StaticFeed{updatedAt: updatedAt}
	if price != nil {
		feed.price = new(big.Int).Set(price)
	}
	return feed
}

// SetPrice updates the reported price and marks the reading fresh.
func (f *StaticFeed) SetPrice(price *big.Int, updatedAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if price != nil {
		f.price = new(big.Int).Set(price)
	} else {
		f.price = nil
	}
	f.updatedAt = updatedAt
}

// LatestPrice implements PriceFeed.
func (f *StaticFeed) LatestPrice() (*big.Int, time.Time, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.price == nil {
		return nil, time.Time{}, errors.New("static feed: price not set")
	}
	return new(big.Int).Set(f.price), f.updatedAt, nil
}

// HTTPFeed reads prices from a JSON endpoint returning
// {"price":"<integer>","timestamp":<unix seconds>}.
type HTTPFeed struct {
	url    string
	client *http.Client
}

// NewHTTPFeed builds a feed against the given endpoint. A nil client falls
// back to a default with a short timeout.
func NewHTTPFeed(url string, client *http.Client) *HTTPFeed {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPFeed{url: url, client: client}
}

// URL returns the configured endpoint.
func (f *HTTPFeed) URL() string { return f.url }

type httpFeedPayload struct {
	Price     string `json:"price"`
	Timestamp int64  `json:"timestamp"`
}

// LatestPrice implements PriceFeed.
func (f *HTTPFeed) LatestPrice() (*big.Int, time.Time, error) {
	resp, err := f.client.Get(f.url)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("http feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, time.Time{}, fmt.Errorf("http feed: unexpected status %d from %s", resp.StatusCode, f.url)
	}
	var payload httpFeedPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, time.Time{}, fmt.Errorf("http feed: decode response: %w", err)
	}
	price, ok := new(big.Int).SetString(payload.Price, 10)
	if !ok {
		return nil, time.Time{}, fmt.Errorf("http feed: invalid price %q", payload.Price)
	}
	return price, time.Unix(payload.Timestamp, 0), nil
}
