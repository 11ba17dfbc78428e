package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	paybot "github.com/RBKunnela/paybot-sdk"
)

func TestNewClient(t *testing.T) {
	client, err := NewClient()
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	if client.Client == nil {
		t.Error("Expected non-nil underlying HTTP client")
	}
	if client.Transport != http.DefaultTransport {
		t.Error("Expected the default transport without payment options")
	}
}

func TestClient_Options(t *testing.T) {
	mock := succeeding()
	client, err := NewClient(
		WithFacilitator(mock),
		WithMaxAutoPay("1.50"),
		WithNetwork(paybot.NetworkBase),
		WithPaymentRateLimit(10, 2),
		WithRequestTimeout(5*time.Second),
	)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	transport, ok := client.Transport.(*PayBotTransport)
	if !ok {
		t.Fatal("Expected PayBotTransport")
	}
	if transport.Facilitator != mock || transport.MaxAutoPay != "1.50" || transport.Network != paybot.NetworkBase {
		t.Errorf("unexpected transport %+v", transport)
	}
	if transport.Limiter == nil || transport.Limiter.Burst() != 2 {
		t.Error("expected rate limiter with burst 2")
	}
	if transport.Base != http.DefaultTransport {
		t.Error("expected the default transport to be wrapped")
	}
	if client.Timeout != 5*time.Second {
		t.Errorf("unexpected timeout %v", client.Timeout)
	}
}

func TestClient_InvalidOptions(t *testing.T) {
	tests := map[string]ClientOption{
		"nil facilitator":  WithFacilitator(nil),
		"bad limit":        WithMaxAutoPay("ten"),
		"unknown network":  WithNetwork("eip155:999999"),
		"zero burst":       WithPaymentRateLimit(1, 0),
		"negative timeout": WithRequestTimeout(-time.Second),
		"unknown event":    WithPaymentCallback("refund", func(paybot.PaymentEvent) {}),
	}
	for name, opt := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := NewClient(opt); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestClient_WithHTTPClient(t *testing.T) {
	custom := &http.Client{Timeout: 3 * time.Second}
	client, err := NewClient(WithHTTPClient(custom), WithFacilitator(succeeding()))
	if err != nil {
		t.Fatal(err)
	}
	if client.Client != custom {
		t.Error("expected the custom client")
	}
	if _, ok := custom.Transport.(*PayBotTransport); !ok {
		t.Error("expected the custom client's transport to be wrapped")
	}
}

func TestClient_WithPaymentCallbacks(t *testing.T) {
	cb := func(paybot.PaymentEvent) {}
	client, err := NewClient(WithPaymentCallbacks(cb, nil, cb))
	if err != nil {
		t.Fatal(err)
	}
	transport := client.Transport.(*PayBotTransport)
	if transport.OnPaymentAttempt == nil || transport.OnPaymentSuccess != nil || transport.OnPaymentFailure == nil {
		t.Error("unexpected callbacks")
	}
}

func TestNewClientFromConfig(t *testing.T) {
	cfg := paybot.DefaultConfig()
	if _, err := NewClientFromConfig(cfg, nil); err == nil {
		t.Error("expected error for config without bot id")
	}

	cfg.BotID = "bot-1"
	cfg.MaxAutoPay = "0.25"
	client, err := NewClientFromConfig(cfg, nil, WithMaxAutoPay("0.05"))
	if err != nil {
		t.Fatal(err)
	}
	transport := client.Transport.(*PayBotTransport)
	if _, ok := transport.Facilitator.(*FacilitatorClient); !ok {
		t.Errorf("expected FacilitatorClient, got %T", transport.Facilitator)
	}
	if transport.MaxAutoPay != "0.05" {
		t.Errorf("caller options must override the config, got %s", transport.MaxAutoPay)
	}
	if client.Timeout != cfg.Timeouts.RequestTimeout {
		t.Errorf("unexpected timeout %v", client.Timeout)
	}
}

// End to end: resource server, facilitator, and auto-paying client.
func TestClient_AutomaticPayment(t *testing.T) {
	f := newFakeFacilitator()
	facilitatorServer := httptest.NewServer(f)
	defer facilitatorServer.Close()

	var resourceHits atomic.Int32
	resource := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resourceHits.Add(1)
		if r.Header.Get("X-Payment-Proof") != "0xtx" {
			requirementsChallenge("10000")(w)
			return
		}
		_, _ = w.Write([]byte("weather: sunny"))
	}))
	defer resource.Close()

	cfg := paybot.DefaultConfig()
	cfg.FacilitatorURL = facilitatorServer.URL
	cfg.BotID = "bot-1"

	var settled atomic.Int32
	client, err := NewClientFromConfig(cfg, nil,
		WithPaymentCallback(paybot.PaymentEventSuccess, func(paybot.PaymentEvent) { settled.Add(1) }))
	if err != nil {
		t.Fatal(err)
	}

	resp, err := client.Get(resource.URL + "/weather")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "weather: sunny" {
		t.Errorf("unexpected response %d %q", resp.StatusCode, body)
	}
	if resourceHits.Load() != 2 || f.verifyCalls.Load() != 1 || f.settleCalls.Load() != 1 || settled.Load() != 1 {
		t.Errorf("unexpected call counts: resource=%d verify=%d settle=%d settled=%d",
			resourceHits.Load(), f.verifyCalls.Load(), f.settleCalls.Load(), settled.Load())
	}
}
