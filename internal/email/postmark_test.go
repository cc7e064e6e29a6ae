package email

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendLoginCode(t *testing.T) {
	var received postmarkEmail
	var gotToken string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", WithEndpoint(server.URL))

	if err := client.SendLoginCode("alice@example.com", "482916", "login"); err != nil {
		t.Fatalf("send login code: %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("server token = %q", gotToken)
	}
	if received.To != "alice@example.com" || received.From != "noreply@example.com" {
		t.Errorf("To/From = %q, %q", received.To, received.From)
	}
	if received.Subject != "Your Carebell sign-in code" {
		t.Errorf("Subject = %q", received.Subject)
	}
	if !strings.Contains(received.TextBody, "482916") {
		t.Errorf("text body missing code: %q", received.TextBody)
	}
}

func TestSendLoginCodeNotConfigured(t *testing.T) {
	client := NewClient("", "noreply@example.com")
	if err := client.SendLoginCode("alice@example.com", "123456", "login"); err == nil {
		t.Fatal("expected error for unconfigured client")
	}
}

func TestSendLoginCodeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", WithEndpoint(server.URL))
	if err := client.SendLoginCode("alice@example.com", "123456", "login"); err == nil {
		t.Fatal("expected error for API failure")
	}
}

func TestConfigured(t *testing.T) {
	if !NewClient("token", "from@test.com").Configured() {
		t.Error("expected Configured() = true")
	}
	if NewClient("", "from@test.com").Configured() {
		t.Error("expected Configured() = false")
	}
}
