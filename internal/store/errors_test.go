package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/naveenspark/teller/pkg/client"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind Kind
		wantMsg  string
	}{
		{
			"unauthorized",
			&client.HTTPError{StatusCode: 401, Message: "token expired"},
			KindAuthorization, "token expired",
		},
		{
			"rejected with envelope",
			fmt.Errorf("client.Transfer: %w", &client.HTTPError{StatusCode: 400, Message: "Insufficient balance", Body: []byte(`{"success":false,"message":"Insufficient balance"}`)}),
			KindApplication, "Insufficient balance",
		},
		{
			"bad request without envelope",
			&client.HTTPError{StatusCode: 400, Message: "bad request", Body: []byte("bad request")},
			KindGateway, "bad request",
		},
		{
			"server error with envelope",
			&client.HTTPError{StatusCode: 500, Message: "boom", Body: []byte(`{"success":false,"message":"boom"}`)},
			KindGateway, "boom",
		},
		{
			"timeout",
			fmt.Errorf("do request: %w", context.DeadlineExceeded),
			KindGateway, "the ledger did not respond in time",
		},
		{
			"decode",
			fmt.Errorf("decode response: %w", &json.SyntaxError{}),
			KindGateway, "unexpected response from the ledger",
		},
		{
			"transport",
			errors.New("dial tcp: connection refused"),
			KindGateway, "could not reach the ledger",
		},
		{
			"already normalized",
			validationError("amount must be positive"),
			KindValidation, "amount must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.err)
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMsg)
			}
		})
	}

	if Normalize(nil) != nil {
		t.Error("Normalize(nil) != nil")
	}
}
