package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Balance is a bot's spendable balance.
type Balance struct {
	BotID    string `json:"botId"`
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
	Network  string `json:"network"`
}

// Transaction is one settled payment in a bot's history.
type Transaction struct {
	ID               string    `json:"id"`
	Resource         string    `json:"resource"`
	Amount           string    `json:"amount"`
	CommissionAmount string    `json:"commissionAmount"`
	PayTo            string    `json:"payTo"`
	Network          string    `json:"network"`
	Transaction      string    `json:"transaction"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
}

// TransactionPage is a page of payment history.
type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	Total        int           `json:"total"`
}

// Limits are the facilitator-side spending limits of a bot.
type Limits struct {
	MaxPerTransaction string `json:"maxPerTransaction"`
	DailyLimit        string `json:"dailyLimit"`
	MonthlyLimit      string `json:"monthlyLimit"`
	DailySpent        string `json:"dailySpent,omitempty"`
	MonthlySpent      string `json:"monthlySpent,omitempty"`
}

// Registration registers a new bot.
type Registration struct {
	Name          string `json:"name"`
	OwnerEmail    string `json:"ownerEmail,omitempty"`
	WalletAddress string `json:"walletAddress,omitempty"`
	Network       string `json:"network,omitempty"`
}

// RegisteredBot is the result of a registration.
type RegisteredBot struct {
	BotID  string `json:"botId"`
	APIKey string `json:"apiKey"`
	Status string `json:"status"`
}

// Health is the facilitator health report.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

func (c *Client) botPath(suffix string) (string, error) {
	if c.BotID == "" {
		return "", fmt.Errorf("paybot api: bot id is required")
	}
	return "/bots/" + url.PathEscape(c.BotID) + suffix, nil
}

// Balance returns the bot's balance.
func (c *Client) Balance(ctx context.Context) (*Balance, error) {
	path, err := c.botPath("/balance")
	if err != nil {
		return nil, err
	}
	var out Balance
	if err := c.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Transactions returns a page of the bot's payment history.
func (c *Client) Transactions(ctx context.Context, limit, offset int) (*TransactionPage, error) {
	path, err := c.botPath("/transactions")
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out TransactionPage
	if err := c.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Limits returns the bot's spending limits.
func (c *Client) Limits(ctx context.Context) (*Limits, error) {
	path, err := c.botPath("/limits")
	if err != nil {
		return nil, err
	}
	var out Limits
	if err := c.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateLimits replaces the bot's spending limits.
func (c *Client) UpdateLimits(ctx context.Context, limits Limits) (*Limits, error) {
	path, err := c.botPath("/limits")
	if err != nil {
		return nil, err
	}
	var out Limits
	if err := c.Do(ctx, http.MethodPut, path, limits, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register registers a new bot. The returned API key is shown only once.
func (c *Client) Register(ctx context.Context, reg Registration) (*RegisteredBot, error) {
	if reg.Name == "" {
		return nil, fmt.Errorf("paybot api: bot name is required")
	}
	var out RegisteredBot
	if err := c.Do(ctx, http.MethodPost, "/bots/register", reg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks facilitator availability.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.Do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
