package events

import (
	"encoding/json"
	"testing"
)

func TestNewMessage(t *testing.T) {
	msg, err := newMessage(Event{Type: DriverRegistered, CompanyID: "c1", DriverID: "d1"})
	if err != nil {
		t.Fatalf("newMessage: %v", err)
	}
	if string(msg.Key) != "d1" {
		t.Fatalf("expected driver id as key, got %q", msg.Key)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != DriverRegistered {
		t.Fatalf("unexpected headers %+v", msg.Headers)
	}

	var ev Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		t.Fatalf("decode value: %v", err)
	}
	if ev.OccurredAt.IsZero() {
		t.Fatal("expected occurred_at to be filled in")
	}
}

func TestNewMessageFallsBackToCompanyKey(t *testing.T) {
	msg, err := newMessage(Event{Type: CarSaved, CompanyID: "c1"})
	if err != nil {
		t.Fatalf("newMessage: %v", err)
	}
	if string(msg.Key) != "c1" {
		t.Fatalf("expected company id as key, got %q", msg.Key)
	}
}
