package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTransactionDecode(t *testing.T) {
	raw := `{
		"id": 17,
		"fromAccount": "A1",
		"toAccount": "A2",
		"amount": 100.0,
		"timestamp": "2025-03-04T10:11:12.345",
		"status": "COMPLETED",
		"isFraud": null,
		"fraudReason": null
	}`

	var tx Transaction
	if err := json.Unmarshal([]byte(raw), &tx); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if tx.ID != "17" {
		t.Errorf("ID = %q, want %q", tx.ID, "17")
	}
	if got := FormatMoney(tx.Amount); got != "100.00" {
		t.Errorf("Amount = %s, want 100.00", got)
	}
	if tx.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", tx.Status, StatusCompleted)
	}
	if tx.IsFraud {
		t.Error("IsFraud = true, want false for null")
	}
	want := time.Date(2025, 3, 4, 10, 11, 12, 345000000, time.Local)
	if !tx.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", tx.Timestamp.Time, want)
	}
}

func TestIDDecode(t *testing.T) {
	tests := []struct {
		raw  string
		want ID
	}{
		{`42`, "42"},
		{`"tx-9"`, "tx-9"},
		{`null`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var id ID
			if err := json.Unmarshal([]byte(tt.raw), &id); err != nil {
				t.Fatalf("Unmarshal(%s) error: %v", tt.raw, err)
			}
			if id != tt.want {
				t.Errorf("Unmarshal(%s) = %q, want %q", tt.raw, id, tt.want)
			}
		})
	}

	var id ID
	if err := json.Unmarshal([]byte(`{}`), &id); err == nil {
		t.Error("expected error decoding object as ID")
	}
}

func TestTimestampLayouts(t *testing.T) {
	tests := []string{
		`"2025-01-02T15:04:05Z"`,
		`"2025-01-02T15:04:05+02:00"`,
		`"2025-01-02T15:04:05"`,
		`"2025-01-02 15:04:05"`,
	}
	for _, raw := range tests {
		var ts Timestamp
		if err := json.Unmarshal([]byte(raw), &ts); err != nil {
			t.Errorf("Unmarshal(%s) error: %v", raw, err)
			continue
		}
		if ts.Year() != 2025 || ts.Month() != time.January || ts.Day() != 2 {
			t.Errorf("Unmarshal(%s) = %v, want 2025-01-02", raw, ts.Time)
		}
	}

	var ts Timestamp
	if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
		t.Error("expected error for unrecognized timestamp")
	}
}

func TestTransactionDirectionAndReview(t *testing.T) {
	tx := Transaction{FromAccount: "A1", ToAccount: "A2", IsFraud: true}
	if !tx.Outgoing("A1") {
		t.Error("Outgoing(A1) = false, want true")
	}
	if tx.Outgoing("A2") {
		t.Error("Outgoing(A2) = true, want false")
	}
	if tx.Outgoing("") {
		t.Error("Outgoing(\"\") = true, want false")
	}
	if !tx.AwaitingDecision() {
		t.Error("AwaitingDecision() = false, want true for undecided fraud")
	}
	tx.FraudDecision = DecisionSafe
	if tx.AwaitingDecision() {
		t.Error("AwaitingDecision() = true after decision")
	}
}

func TestFraudDecisionValid(t *testing.T) {
	for _, d := range []FraudDecision{DecisionSafe, DecisionConfirmedFraud} {
		if !d.Valid() {
			t.Errorf("%q.Valid() = false, want true", d)
		}
	}
	for _, d := range []FraudDecision{"", "safe", "MAYBE"} {
		if d.Valid() {
			t.Errorf("%q.Valid() = true, want false", d)
		}
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"ADMIN", RoleAdmin},
		{"admin", RoleAdmin},
		{" USER ", RoleUser},
		{"", RoleUser},
		{"ROOT", RoleUser},
	}
	for _, tt := range tests {
		if got := ParseRole(tt.in); got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
