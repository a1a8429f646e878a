package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"fleet_tracker/internal/models"
	"fleet_tracker/internal/realtime"
)

// StreamError is an "error" event received on the driver-updates stream.
type StreamError struct {
	Message string `json:"message"`
}

func (e *StreamError) Error() string { return e.Message }

// Stream follows the driver-updates event stream, calling onSnapshot with
// every snapshot and onError with every error event, until ctx is done or
// the server closes the stream.
func (c *Client) Stream(ctx context.Context, onSnapshot func([]models.DriverWithCar), onError func(error)) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/driver-updates", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}

	err = readEvents(resp.Body, func(event, data string) error {
		switch event {
		case "error":
			var se StreamError
			if err := json.Unmarshal([]byte(data), &se); err != nil {
				se.Message = data
			}
			onError(&se)
		case "", "message":
			var snapshot []models.DriverWithCar
			if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
				return fmt.Errorf("decode snapshot: %w", err)
			}
			onSnapshot(snapshot)
		}
		return nil
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// readEvents parses a text/event-stream body and calls fn per dispatched
// event. Multiple data lines are joined with newlines; comments are skipped.
func readEvents(r io.Reader, fn func(event, data string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 8<<20)

	var event string
	var data []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if len(data) > 0 {
				if err := fn(event, strings.Join(data, "\n")); err != nil {
					return err
				}
			}
			event, data = "", nil
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			event = value
		case "data":
			data = append(data, value)
		}
	}
	return scanner.Err()
}

// Subscribe follows the realtime driver-change websocket until ctx is done
// or the connection drops.
func (c *Client) Subscribe(ctx context.Context, onChange func(realtime.Change)) error {
	endpoint, err := c.wsURL("/ws/drivers")
	if err != nil {
		return err
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return &APIError{StatusCode: resp.StatusCode, Message: "websocket handshake failed"}
		}
		return err
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var ch realtime.Change
		if err := conn.ReadJSON(&ch); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		onChange(ch)
	}
}
