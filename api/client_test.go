package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	paybot "github.com/RBKunnela/paybot-sdk"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := paybot.DefaultConfig()
	cfg.FacilitatorURL = server.URL + "/"
	cfg.APIKey = "secret"
	cfg.BotID = "bot/1"
	return NewClient(cfg)
}

func TestDo_Headers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected Authorization %q", got)
		}
		if got := r.Header.Get("X-Bot-Id"); got != "bot/1" {
			t.Errorf("unexpected X-Bot-Id %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("unexpected Content-Type %q", got)
		}
		if got := r.Header.Get("Idempotency-Key"); got != "attempt-1" {
			t.Errorf("unexpected Idempotency-Key %q", got)
		}
		if r.URL.Path != "/echo" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["msg"]})
	})

	var out map[string]string
	err := client.Do(context.Background(), http.MethodPost, "/echo", map[string]string{"msg": "hi"}, &out, WithIdempotencyKey("attempt-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["echo"] != "hi" {
		t.Errorf("unexpected response %v", out)
	}
}

func TestDo_APIError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantCode    string
		wantDetails map[string]interface{}
	}{
		{
			name:        "full envelope",
			status:      http.StatusPaymentRequired,
			body:        `{"error":"daily limit reached","code":"LIMIT_EXCEEDED","details":{"limit":"5.00"}}`,
			wantMessage: "daily limit reached",
			wantCode:    "LIMIT_EXCEEDED",
			wantDetails: map[string]interface{}{"limit": "5.00"},
		},
		{
			name:        "scalar details",
			status:      http.StatusBadRequest,
			body:        `{"error":"bad","details":"oops"}`,
			wantMessage: "bad",
			wantDetails: map[string]interface{}{"value": json.RawMessage(`"oops"`)},
		},
		{
			name:   "non-json body",
			status: http.StatusBadGateway,
			body:   "<html>bad gateway</html>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := client.Do(context.Background(), http.MethodGet, "/x", nil, nil)
			apiErr, ok := AsAPIError(err)
			if !ok {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, apiErr.StatusCode)
			}
			if apiErr.Message != tt.wantMessage || apiErr.Code != tt.wantCode {
				t.Errorf("unexpected message/code %q/%q", apiErr.Message, apiErr.Code)
			}
			if len(apiErr.Details) != len(tt.wantDetails) {
				t.Errorf("unexpected details %v", apiErr.Details)
			}
			for k, want := range tt.wantDetails {
				got := apiErr.Details[k]
				if raw, ok := want.(json.RawMessage); ok {
					if string(got.(json.RawMessage)) != string(raw) {
						t.Errorf("details[%s] = %s, want %s", k, got, raw)
					}
					continue
				}
				if got != want {
					t.Errorf("details[%s] = %v, want %v", k, got, want)
				}
			}
			if apiErr.Error() == "" {
				t.Error("empty error string")
			}
		})
	}
}

func TestDo_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client := &Client{BaseURL: url, HTTPClient: &http.Client{Timeout: time.Second}}
	err := client.Do(context.Background(), http.MethodGet, "/health", nil, nil)
	if !errors.Is(err, paybot.ErrFacilitatorUnavailable) {
		t.Errorf("expected ErrFacilitatorUnavailable, got %v", err)
	}
	if _, ok := AsAPIError(err); ok {
		t.Error("transport errors must not be APIErrors")
	}
}

func TestAccountEndpoints(t *testing.T) {
	var limits Limits
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.EscapedPath() {
		case "GET /bots/bot%2F1/balance":
			_, _ = w.Write([]byte(`{"botId":"bot/1","balance":"12.50","currency":"USDC","network":"eip155:84532"}`))
		case "GET /bots/bot%2F1/transactions":
			if r.URL.Query().Get("limit") != "10" || r.URL.Query().Get("offset") != "20" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			_, _ = w.Write([]byte(`{"transactions":[{"id":"tx-1","amount":"0.01","status":"settled"}],"total":21}`))
		case "GET /bots/bot%2F1/limits":
			_ = json.NewEncoder(w).Encode(limits)
		case "PUT /bots/bot%2F1/limits":
			_ = json.NewDecoder(r.Body).Decode(&limits)
			_ = json.NewEncoder(w).Encode(limits)
		case "POST /bots/register":
			var reg Registration
			_ = json.NewDecoder(r.Body).Decode(&reg)
			_ = json.NewEncoder(w).Encode(RegisteredBot{BotID: reg.Name + "-id", APIKey: "k", Status: "active"})
		case "GET /health":
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.EscapedPath())
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	balance, err := client.Balance(ctx)
	if err != nil || balance.Balance != "12.50" {
		t.Errorf("Balance() = %+v, %v", balance, err)
	}

	page, err := client.Transactions(ctx, 10, 20)
	if err != nil || page.Total != 21 || len(page.Transactions) != 1 || page.Transactions[0].ID != "tx-1" {
		t.Errorf("Transactions() = %+v, %v", page, err)
	}

	updated, err := client.UpdateLimits(ctx, Limits{MaxPerTransaction: "1.00", DailyLimit: "5.00", MonthlyLimit: "50.00"})
	if err != nil || updated.DailyLimit != "5.00" {
		t.Errorf("UpdateLimits() = %+v, %v", updated, err)
	}
	current, err := client.Limits(ctx)
	if err != nil || current.MonthlyLimit != "50.00" {
		t.Errorf("Limits() = %+v, %v", current, err)
	}

	bot, err := client.Register(ctx, Registration{Name: "crawler"})
	if err != nil || bot.BotID != "crawler-id" {
		t.Errorf("Register() = %+v, %v", bot, err)
	}
	if _, err := client.Register(ctx, Registration{}); err == nil {
		t.Error("expected error for unnamed bot")
	}

	health, err := client.Health(ctx)
	if err != nil || health.Status != "ok" {
		t.Errorf("Health() = %+v, %v", health, err)
	}
}

func TestAccountEndpoints_RequireBotID(t *testing.T) {
	client := &Client{BaseURL: "http://127.0.0.1:1"}
	if _, err := client.Balance(context.Background()); err == nil {
		t.Error("expected error without bot id")
	}
}
