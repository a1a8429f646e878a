package cli

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"go.uber.org/fx"

	"fleet_tracker/internal/config"
	"fleet_tracker/internal/livemap"
	"fleet_tracker/internal/models"
	"fleet_tracker/internal/realtime"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Port:           "0",
		DBDriver:       "sqlite",
		DBSource:       "file::memory:?cache=shared",
		JWTSecret:      "test-secret",
		BlobBackend:    "local",
		BlobDir:        dir + "/blobs",
		BlobPublicURL:  "/uploads/car-images",
		RealtimeSource: "inprocess",
		LogFile:        dir + "/app.log",
		LogLevel:       "error",
	}
}

func TestServerModuleGraph(t *testing.T) {
	if err := fx.ValidateApp(ServerModule(testConfig(t))); err != nil {
		t.Fatalf("dependency graph is incomplete: %v", err)
	}
}

func TestProvideNotifier(t *testing.T) {
	hub := realtime.NewHub()
	cfg := testConfig(t)

	if _, ok := provideNotifier(cfg, hub).(*realtime.Hub); !ok {
		t.Fatal("inprocess source should notify the hub directly")
	}

	cfg.RealtimeSource = "postgres"
	if _, ok := provideNotifier(cfg, hub).(realtime.Nop); !ok {
		t.Fatal("postgres source should leave notifications to the trigger")
	}
}

func TestProvideBlobStoreRejectsUnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.BlobBackend = "ftp"
	if _, err := provideBlobStore(cfg); err == nil {
		t.Fatal("expected an error for an unknown backend")
	}
}

func TestPrintBoard(t *testing.T) {
	lat, lng := -1.28, 36.82
	board := livemap.NewBoard()
	board.Load([]models.DriverWithCar{
		{
			Driver: models.Driver{ID: "d1", Name: "Amina", PhoneNumber: "0700", Latitude: &lat, Longitude: &lng},
			Car:    &models.Car{Name: "Probox", PlateNumber: "KDA 123A"},
		},
		{Driver: models.Driver{ID: "d2", Name: "Brian"}},
	})

	var buf bytes.Buffer
	printBoard(&buf, board.Markers())
	out := buf.String()

	for _, want := range []string{"2 drivers", "Amina", "Probox (KDA 123A)", "-1.28000,36.82000", "stored"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if last := lines[len(lines)-1]; !strings.HasPrefix(last, "Brian") || !strings.Contains(last, "-") {
		t.Errorf("driver without position should render dashes, got %q", last)
	}
}

func TestHTTPServerStopEndsOpenStreams(t *testing.T) {
	handlerDone := make(chan struct{})
	srv, stop := newHTTPServer("127.0.0.1:0", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(handlerDone)
		w.Write([]byte("data: []\n\n"))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go srv.Serve(ln)

	resp, err := http.Get("http://" + ln.Addr().String())
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if _, err := resp.Body.Read(make([]byte, 1)); err != nil {
		t.Fatalf("read first byte: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := stop(ctx); err != nil {
		t.Fatalf("stop with an open stream: %v", err)
	}
	select {
	case <-handlerDone:
	case <-time.After(time.Second):
		t.Fatal("stream handler did not return")
	}
}
