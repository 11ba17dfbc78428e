package helpers

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestParseChallenge(t *testing.T) {
	tests := []struct {
		name       string
		header     http.Header
		body       string
		wantAmount string
		wantPayTo  string
		wantSource ChallengeSource
		wantOK     bool
	}{
		{
			name:       "nested requirements",
			body:       `{"paymentRequirements":{"amount":"10000","payTo":"0xabc"}}`,
			wantAmount: "10000",
			wantPayTo:  "0xabc",
			wantSource: SourceRequirements,
			wantOK:     true,
		},
		{
			name:       "nested requirements with numeric amount",
			body:       `{"paymentRequirements":{"amount":10000,"payTo":"0xabc"}}`,
			wantAmount: "10000",
			wantPayTo:  "0xabc",
			wantSource: SourceRequirements,
			wantOK:     true,
		},
		{
			name:       "top-level fields",
			body:       `{"amount":"500","payTo":"0xdef","error":"pay up"}`,
			wantAmount: "500",
			wantPayTo:  "0xdef",
			wantSource: SourceBody,
			wantOK:     true,
		},
		{
			name:       "incomplete nested falls back to top level",
			body:       `{"paymentRequirements":{"amount":"1"},"amount":"2","payTo":"0x2"}`,
			wantAmount: "2",
			wantPayTo:  "0x2",
			wantSource: SourceBody,
			wantOK:     true,
		},
		{
			name:       "headers",
			header:     http.Header{"X-Payment-Amount": {"250"}, "X-Payment-Address": {"0x123"}},
			body:       "Payment Required",
			wantAmount: "250",
			wantPayTo:  "0x123",
			wantSource: SourceHeaders,
			wantOK:     true,
		},
		{
			name:       "body takes precedence over headers",
			header:     http.Header{"X-Payment-Amount": {"250"}, "X-Payment-Address": {"0x123"}},
			body:       `{"amount":"7","payTo":"0x7"}`,
			wantAmount: "7",
			wantPayTo:  "0x7",
			wantSource: SourceBody,
			wantOK:     true,
		},
		{
			name:   "header amount without address",
			header: http.Header{"X-Payment-Amount": {"250"}},
		},
		{
			name: "empty payTo",
			body: `{"amount":"1","payTo":""}`,
		},
		{
			name: "unrelated json",
			body: `{"x402Version":2,"accepts":[]}`,
		},
		{
			name: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := tt.header
			if header == nil {
				header = http.Header{}
			}
			c, ok := ParseChallenge(header, []byte(tt.body))
			if ok != tt.wantOK {
				t.Fatalf("ParseChallenge ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if c.Amount != tt.wantAmount || c.PayTo != tt.wantPayTo || c.Source != tt.wantSource {
				t.Errorf("got %+v, want amount=%s payTo=%s source=%s", c, tt.wantAmount, tt.wantPayTo, tt.wantSource)
			}
		})
	}
}

func TestBufferBody(t *testing.T) {
	resp := &http.Response{Body: io.NopCloser(strings.NewReader("challenge"))}

	data, err := BufferBody(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "challenge" {
		t.Errorf("unexpected data %q", data)
	}

	again, _ := io.ReadAll(resp.Body)
	if string(again) != "challenge" {
		t.Errorf("body should still be readable, got %q", again)
	}

	if data, err := BufferBody(&http.Response{}); data != nil || err != nil {
		t.Errorf("nil body should yield nothing, got %q %v", data, err)
	}
}

func TestBufferBody_LargerThanLimit(t *testing.T) {
	sent := strings.Repeat("a", maxChallengeBody+10)
	resp := &http.Response{Body: io.NopCloser(strings.NewReader(sent))}

	data, err := BufferBody(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) != maxChallengeBody {
		t.Errorf("expected %d parsed bytes, got %d", maxChallengeBody, len(data))
	}

	full, _ := io.ReadAll(resp.Body)
	if string(full) != sent {
		t.Errorf("caller must see the full body: got %d bytes, want %d", len(full), len(sent))
	}
}
