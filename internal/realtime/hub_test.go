package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.ServeClient(conn, r.URL.Query().Get("company"))
	}))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, company string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?company=" + company
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, company string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount(company) != want {
		if time.Now().After(deadline) {
			t.Fatalf("company %s: expected %d clients, have %d", company, want, hub.ClientCount(company))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubDeliversOnlyToSameCompany(t *testing.T) {
	hub, srv := startHub(t)
	a := dial(t, srv, "company-a")
	b := dial(t, srv, "company-b")
	waitForClients(t, hub, "company-a", 1)
	waitForClients(t, hub, "company-b", 1)

	hub.Notify(Change{Op: OpUpdate, DriverID: "d-a", CompanyID: "company-a"})
	hub.Notify(Change{Op: OpInsert, DriverID: "d-b", CompanyID: "company-b"})

	var got Change
	b.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := b.ReadJSON(&got); err != nil {
		t.Fatalf("read b: %v", err)
	}
	if got.DriverID != "d-b" || got.Op != OpInsert {
		t.Fatalf("company-b received %+v", got)
	}

	a.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := a.ReadJSON(&got); err != nil {
		t.Fatalf("read a: %v", err)
	}
	if got.DriverID != "d-a" {
		t.Fatalf("company-a received %+v", got)
	}
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "company-a")
	waitForClients(t, hub, "company-a", 1)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	waitForClients(t, hub, "company-a", 0)
}

func TestParseNotification(t *testing.T) {
	ch, err := parseNotification(`{"op":"UPDATE","driver_id":"d1","company_id":"c1","fields":{"name":"Ann","latitude":1.25,"longitude":null}}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ch.Op != OpUpdate || ch.DriverID != "d1" || ch.CompanyID != "c1" {
		t.Fatalf("unexpected change %+v", ch)
	}
	if ch.Fields["latitude"] != 1.25 || ch.Fields["longitude"] != nil {
		t.Fatalf("unexpected fields %+v", ch.Fields)
	}

	for _, bad := range []string{`not json`, `{"op":"UPDATE","company_id":"c1"}`} {
		if _, err := parseNotification(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
