// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

package accounting

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// testID is a swipeable university ID used across the tests.
const testID = "123456789"

// newTestClient wires a Client to an httptest server handled by mux.
func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("NewClient accepted an empty BaseURL")
	}
}

func TestHashIdentifier(t *testing.T) {
	// SHA-256("123456789") as lowercase hex.
	want := "15e2b0d3c33891ebb0f1ef609ec419420c20e320ce94c65fbc8c3312448eb225"
	if got := HashIdentifier(testID); got != want {
		t.Errorf("HashIdentifier(%q) = %q, want %q", testID, got, want)
	}
}

func TestIsAuthorized(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/get", func(writer http.ResponseWriter, request *http.Request) {
		if got, want := request.URL.Query().Get("hashedid"), HashIdentifier(testID); got != want {
			t.Errorf("hashedid = %q, want %q", got, want)
		}
		// Permission casing varies across accounts; matching is
		// case-insensitive.
		json.NewEncoder(writer).Encode(map[string]any{
			"permissions": []string{"member", "LabManager"},
		})
	})
	client := newTestClient(t, mux)

	authorized, err := client.IsAuthorized(context.Background(), testID)
	if err != nil {
		t.Fatalf("IsAuthorized: %v", err)
	}
	if !authorized {
		t.Error("IsAuthorized = false for a lab manager")
	}
}

func TestIsAuthorizedUnknownUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/get", func(writer http.ResponseWriter, request *http.Request) {
		json.NewEncoder(writer).Encode(map[string]any{"permissions": []string{}})
	})
	client := newTestClient(t, mux)

	authorized, err := client.IsAuthorized(context.Background(), testID)
	if err != nil {
		t.Fatalf("IsAuthorized: %v", err)
	}
	if authorized {
		t.Error("IsAuthorized = true for an account with no permissions")
	}
}

func TestDisplayName(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/get", func(writer http.ResponseWriter, request *http.Request) {
		json.NewEncoder(writer).Encode(map[string]any{"name": "Jane Smith"})
	})
	client := newTestClient(t, mux)

	name, known, err := client.DisplayName(context.Background(), testID)
	if err != nil {
		t.Fatalf("DisplayName: %v", err)
	}
	if !known || name != "Jane Smith" {
		t.Errorf("DisplayName = %q, %v; want %q, true", name, known, "Jane Smith")
	}
}

func TestFindIdentifierHash(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/find", func(writer http.ResponseWriter, request *http.Request) {
		switch request.URL.Query().Get("email") {
		case "jane@rit.edu":
			json.NewEncoder(writer).Encode(map[string]any{"hashedId": "abc123"})
		default:
			json.NewEncoder(writer).Encode(map[string]any{"hashedId": nil})
		}
	})
	client := newTestClient(t, mux)

	hashedID, registered, err := client.FindIdentifierHash(context.Background(), "jane@rit.edu")
	if err != nil {
		t.Fatalf("FindIdentifierHash: %v", err)
	}
	if !registered || hashedID != "abc123" {
		t.Errorf("FindIdentifierHash = %q, %v; want %q, true", hashedID, registered, "abc123")
	}

	_, registered, err = client.FindIdentifierHash(context.Background(), "nobody@rit.edu")
	if err != nil {
		t.Fatalf("FindIdentifierHash (unregistered): %v", err)
	}
	if registered {
		t.Error("FindIdentifierHash reported an unregistered email as registered")
	}
}

func TestLastPrint(t *testing.T) {
	printedAt := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)
	mux := http.NewServeMux()
	mux.HandleFunc("/user/find", func(writer http.ResponseWriter, request *http.Request) {
		json.NewEncoder(writer).Encode(map[string]any{"hashedId": "abc123"})
	})
	mux.HandleFunc("/print/last", func(writer http.ResponseWriter, request *http.Request) {
		if got := request.URL.Query().Get("hashedid"); got != "abc123" {
			t.Errorf("hashedid = %q, want %q", got, "abc123")
		}
		json.NewEncoder(writer).Encode(map[string]any{
			"timeStamp": float64(printedAt.Unix()),
			"weight":    42.5,
		})
	})
	client := newTestClient(t, mux)

	lastPrint, err := client.LastPrint(context.Background(), "jane@rit.edu")
	if err != nil {
		t.Fatalf("LastPrint: %v", err)
	}
	if lastPrint == nil {
		t.Fatal("LastPrint = nil for an account with a print")
	}
	if !lastPrint.Timestamp.Equal(printedAt) {
		t.Errorf("Timestamp = %v, want %v", lastPrint.Timestamp, printedAt)
	}
	if lastPrint.WeightGrams != 42.5 {
		t.Errorf("WeightGrams = %v, want 42.5", lastPrint.WeightGrams)
	}
}

func TestLastPrintNoHistory(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/find", func(writer http.ResponseWriter, request *http.Request) {
		json.NewEncoder(writer).Encode(map[string]any{"hashedId": "abc123"})
	})
	mux.HandleFunc("/print/last", func(writer http.ResponseWriter, request *http.Request) {
		json.NewEncoder(writer).Encode(map[string]any{"timeStamp": nil})
	})
	client := newTestClient(t, mux)

	lastPrint, err := client.LastPrint(context.Background(), "jane@rit.edu")
	if err != nil {
		t.Fatalf("LastPrint: %v", err)
	}
	if lastPrint != nil {
		t.Errorf("LastPrint = %+v for an account with no prints, want nil", lastPrint)
	}
}

func TestLastPrintUnregisteredEmail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/find", func(writer http.ResponseWriter, request *http.Request) {
		json.NewEncoder(writer).Encode(map[string]any{"hashedId": nil})
	})
	client := newTestClient(t, mux)

	lastPrint, err := client.LastPrint(context.Background(), "nobody@rit.edu")
	if err != nil {
		t.Fatalf("LastPrint: %v", err)
	}
	if lastPrint != nil {
		t.Errorf("LastPrint = %+v for an unregistered email, want nil", lastPrint)
	}
}

func TestLastPrintSummary(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/get", func(writer http.ResponseWriter, request *http.Request) {
		json.NewEncoder(writer).Encode(map[string]any{"email": "jane@rit.edu"})
	})
	mux.HandleFunc("/print/last", func(writer http.ResponseWriter, request *http.Request) {
		json.NewEncoder(writer).Encode(map[string]any{
			"timeStamp": 1700000000.0,
			"weight":    10.0,
			"purpose":   "Reimbursed Project",
			"billTo":    "P12345",
		})
	})
	client := newTestClient(t, mux)

	summary, err := client.LastPrintSummary(context.Background(), testID)
	if err != nil {
		t.Fatalf("LastPrintSummary: %v", err)
	}
	want := Summary{
		Email:             "jane@rit.edu",
		LastPurpose:       "Reimbursed Project",
		LastBillingNumber: "P12345",
	}
	if summary == nil || *summary != want {
		t.Errorf("LastPrintSummary = %+v, want %+v", summary, want)
	}
}

func TestLastPrintSummaryUnknownID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/get", func(writer http.ResponseWriter, request *http.Request) {
		json.NewEncoder(writer).Encode(map[string]any{"email": nil})
	})
	client := newTestClient(t, mux)

	summary, err := client.LastPrintSummary(context.Background(), testID)
	if err != nil {
		t.Fatalf("LastPrintSummary: %v", err)
	}
	if summary != nil {
		t.Errorf("LastPrintSummary = %+v for an unknown ID, want nil", summary)
	}
}

func TestLogPrint(t *testing.T) {
	var received addPrintRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/user/find", func(writer http.ResponseWriter, request *http.Request) {
		json.NewEncoder(writer).Encode(map[string]any{"hashedId": "abc123"})
	})
	mux.HandleFunc("/print/add", func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", request.Method)
		}
		if err := json.NewDecoder(request.Body).Decode(&received); err != nil {
			t.Errorf("decoding print body: %v", err)
		}
		json.NewEncoder(writer).Encode(map[string]any{"status": "success"})
	})
	client := newTestClient(t, mux)

	logged, err := client.LogPrint(context.Background(), LogPrintRequest{
		Email:         "jane@rit.edu",
		FileName:      "benchy.gcode",
		Material:      "PLA",
		WeightGrams:   12,
		Purpose:       "Reimbursed Project",
		BillingNumber: "P12345",
		PaymentOwed:   true,
	})
	if err != nil {
		t.Fatalf("LogPrint: %v", err)
	}
	if !logged {
		t.Error("LogPrint = false on a success response")
	}
	if received.HashedID != "abc123" {
		t.Errorf("hashedId = %q, want %q", received.HashedID, "abc123")
	}
	if received.BillTo == nil || *received.BillTo != "P12345" {
		t.Errorf("billTo = %v, want P12345", received.BillTo)
	}
	if !received.Owed {
		t.Error("owed = false, want true")
	}
}

// TestLogPrintOmitsBillingForOtherPurposes verifies billing numbers
// only travel with reimbursed-project prints.
func TestLogPrintOmitsBillingForOtherPurposes(t *testing.T) {
	var received addPrintRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/user/find", func(writer http.ResponseWriter, request *http.Request) {
		json.NewEncoder(writer).Encode(map[string]any{"hashedId": "abc123"})
	})
	mux.HandleFunc("/print/add", func(writer http.ResponseWriter, request *http.Request) {
		json.NewDecoder(request.Body).Decode(&received)
		json.NewEncoder(writer).Encode(map[string]any{"status": "success"})
	})
	client := newTestClient(t, mux)

	_, err := client.LogPrint(context.Background(), LogPrintRequest{
		Email:         "jane@rit.edu",
		FileName:      "benchy.gcode",
		Material:      "PLA",
		WeightGrams:   12,
		Purpose:       "Personal Project",
		BillingNumber: "P12345",
		PaymentOwed:   true,
	})
	if err != nil {
		t.Fatalf("LogPrint: %v", err)
	}
	if received.BillTo != nil {
		t.Errorf("billTo = %q for a personal print, want null", *received.BillTo)
	}
}

func TestLogPrintDeclined(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/find", func(writer http.ResponseWriter, request *http.Request) {
		json.NewEncoder(writer).Encode(map[string]any{"hashedId": "abc123"})
	})
	mux.HandleFunc("/print/add", func(writer http.ResponseWriter, request *http.Request) {
		json.NewEncoder(writer).Encode(map[string]any{"status": "error"})
	})
	client := newTestClient(t, mux)

	logged, err := client.LogPrint(context.Background(), LogPrintRequest{
		Email: "jane@rit.edu", FileName: "benchy.gcode", Material: "PLA",
	})
	if err != nil {
		t.Fatalf("LogPrint: %v", err)
	}
	if logged {
		t.Error("LogPrint = true on a non-success status")
	}
}

func TestTransportError(t *testing.T) {
	server := httptest.NewServer(http.NewServeMux())
	baseURL := server.URL
	server.Close() // nothing listening anymore

	client, err := NewClient(Config{BaseURL: baseURL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.IsAuthorized(context.Background(), testID)
	if !IsTransport(err) {
		t.Errorf("error = %v, want a transport error", err)
	}
	if IsProtocol(err) {
		t.Error("transport failure also matched IsProtocol")
	}
}

func TestProtocolErrorStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/get", func(writer http.ResponseWriter, request *http.Request) {
		http.Error(writer, "boom", http.StatusInternalServerError)
	})
	client := newTestClient(t, mux)

	_, err := client.IsAuthorized(context.Background(), testID)
	if !IsProtocol(err) {
		t.Fatalf("error = %v, want a protocol error", err)
	}
	var protocolError *ProtocolError
	if !errors.As(err, &protocolError) || protocolError.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %v, want 500", protocolError)
	}
}

func TestProtocolErrorMalformedBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/get", func(writer http.ResponseWriter, request *http.Request) {
		writer.Write([]byte("<html>not json</html>"))
	})
	client := newTestClient(t, mux)

	_, err := client.IsAuthorized(context.Background(), testID)
	if !IsProtocol(err) {
		t.Errorf("error = %v, want a protocol error", err)
	}
}
