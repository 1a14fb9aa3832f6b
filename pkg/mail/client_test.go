package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oakmart/storefront-backend/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.MailConfig{
		APIKey:      "sg-test-key",
		DefaultFrom: "noreply@oakmart.test",
		FromName:    "Oakmart",
	}, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, srv
}

func TestSendSuccess(t *testing.T) {
	t.Parallel()

	var got sendPayload
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/mail/send" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sg-test-key" {
			t.Fatalf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	})

	err := client.Send(context.Background(), Message{
		To:       "buyer@example.com",
		Subject:  "Order confirmed",
		TextBody: "Thanks for your order.",
		HTMLBody: "<p>Thanks for your order.</p>",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if len(got.Personalizations) != 1 || got.Personalizations[0].To[0].Email != "buyer@example.com" {
		t.Fatalf("unexpected personalizations %+v", got.Personalizations)
	}
	if got.From.Email != "noreply@oakmart.test" {
		t.Fatalf("unexpected from %+v", got.From)
	}
	if len(got.Content) != 2 {
		t.Fatalf("expected text and html content, got %+v", got.Content)
	}
}

func TestSendProviderError(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"message":"bad request"}]}`, http.StatusBadRequest)
	})

	err := client.Send(context.Background(), Message{
		To:       "buyer@example.com",
		Subject:  "Order confirmed",
		TextBody: "body",
	})
	if err == nil {
		t.Fatal("expected error from provider failure")
	}
}

func TestSendValidation(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	cases := []struct {
		name string
		msg  Message
	}{
		{"missing recipient", Message{Subject: "s", TextBody: "b"}},
		{"missing subject", Message{To: "a@b.c", TextBody: "b"}},
		{"missing body", Message{To: "a@b.c", Subject: "s"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := client.Send(context.Background(), tc.msg); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(config.MailConfig{DefaultFrom: "a@b.c"}); err == nil {
		t.Fatal("expected error without api key")
	}
}
