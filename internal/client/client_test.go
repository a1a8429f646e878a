package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"fleet_tracker/internal/models"
	"fleet_tracker/internal/realtime"
)

func TestReadEvents(t *testing.T) {
	body := ": comment\n" +
		"data:[{\"id\":\"d1\"}]\n\n" +
		"event:error\ndata:{\"message\":\"Error fetching drivers\"}\n\n" +
		"data: line one\ndata: line two\n\n" +
		"\n"

	type got struct{ event, data string }
	var events []got
	err := readEvents(strings.NewReader(body), func(event, data string) error {
		events = append(events, got{event, data})
		return nil
	})
	if err != nil {
		t.Fatalf("readEvents: %v", err)
	}

	want := []got{
		{"", `[{"id":"d1"}]`},
		{"error", `{"message":"Error fetching drivers"}`},
		{"", "line one\nline two"},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, events[i], want[i])
		}
	}
}

func TestStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"Unauthorized"}`)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data:[{\"id\":\"d1\",\"name\":\"Amina\",\"car\":null,\"currentLocation\":null}]\n\n")
		fmt.Fprint(w, "event:error\ndata:{\"message\":\"Error fetching drivers\"}\n\n")
		fmt.Fprint(w, "data:[]\n\n")
	}))
	defer srv.Close()

	var snapshots [][]models.DriverWithCar
	var streamErrs []error
	err := New(srv.URL, "tok").Stream(context.Background(),
		func(s []models.DriverWithCar) { snapshots = append(snapshots, s) },
		func(err error) { streamErrs = append(streamErrs, err) },
	)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snapshots))
	}
	if snapshots[0][0].Name != "Amina" || len(snapshots[1]) != 0 {
		t.Errorf("unexpected snapshots: %+v", snapshots)
	}
	if len(streamErrs) != 1 || streamErrs[0].Error() != "Error fetching drivers" {
		t.Errorf("unexpected stream errors: %v", streamErrs)
	}

	err = New(srv.URL, "wrong").Stream(context.Background(), func([]models.DriverWithCar) {}, func(error) {})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized || apiErr.Message != "Unauthorized" {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
}

func TestSignInKeepsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/sign-in":
			fmt.Fprint(w, `{"token":"fresh","user":{"id":"u1","email":"a@b.co"}}`)
		case "/api/me":
			if r.Header.Get("Authorization") != "Bearer fresh" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			fmt.Fprint(w, `{"user":{"id":"u1","email":"a@b.co","role":"COMPANY_ADMIN"}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	api := New(srv.URL, "")
	if _, err := api.SignIn(context.Background(), "a@b.co", "pw"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if api.Token() != "fresh" {
		t.Fatalf("token = %q, want fresh", api.Token())
	}
	user, err := api.Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if user.Role != models.RoleCompanyAdmin {
		t.Errorf("role = %q", user.Role)
	}
}

func TestUserProviderCachesUntilRefresh(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		fmt.Fprintf(w, `{"user":{"id":"u1","name":"call %d"}}`, n)
	}))
	defer srv.Close()

	users := NewUserProvider(New(srv.URL, "tok"))
	ctx := context.Background()

	first, err := users.GetUser(ctx)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	again, _ := users.GetUser(ctx)
	if first.Name != "call 1" || again.Name != "call 1" {
		t.Fatalf("expected cached user, got %q then %q", first.Name, again.Name)
	}

	refreshed, err := users.RefreshUser(ctx)
	if err != nil {
		t.Fatalf("RefreshUser: %v", err)
	}
	if refreshed.Name != "call 2" {
		t.Fatalf("refresh should refetch, got %q", refreshed.Name)
	}
}

func TestSubscribe(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteJSON(realtime.Change{Op: realtime.OpUpdate, DriverID: "d1", CompanyID: "c1",
			Fields: map[string]any{"latitude": 1.5}})
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		time.Sleep(50 * time.Millisecond)
	}))
	defer srv.Close()

	var changes []realtime.Change
	err := New(srv.URL, "tok").Subscribe(context.Background(), func(ch realtime.Change) {
		changes = append(changes, ch)
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if len(changes) != 1 || changes[0].DriverID != "d1" || changes[0].Fields["latitude"] != 1.5 {
		t.Fatalf("unexpected changes: %+v", changes)
	}

	err = New(srv.URL, "bad").Subscribe(context.Background(), func(realtime.Change) {})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected handshake APIError, got %v", err)
	}
}

func TestWSURL(t *testing.T) {
	got, err := New("https://fleet.example.com/", "a b").wsURL("/ws/drivers")
	if err != nil {
		t.Fatal(err)
	}
	if got != "wss://fleet.example.com/ws/drivers?token=a+b" {
		t.Fatalf("wsURL = %q", got)
	}
}
