package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	logrus "github.com/sirupsen/logrus"
)

// Channel is the postgres NOTIFY channel fed by the drivers trigger.
const Channel = "driver_changes"

// Listener relays postgres notifications on Channel to a Notifier.
type Listener struct {
	dsn    string
	target Notifier
}

func NewListener(dsn string, target Notifier) *Listener {
	return &Listener{dsn: dsn, target: target}
}

// Run listens until ctx is done. pq reconnects on its own; a nil notification
// marks a reconnect, after which changes may have been missed.
func (l *Listener) Run(ctx context.Context) error {
	listener := pq.NewListener(l.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logrus.WithError(err).WithField("event", ev).Warn("Postgres listener event")
		}
	})
	defer listener.Close()

	if err := listener.Listen(Channel); err != nil {
		return fmt.Errorf("listen %s: %w", Channel, err)
	}
	logrus.WithField("channel", Channel).Info("Listening for driver changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			if n == nil {
				logrus.Warn("Postgres listener reconnected, changes may have been missed")
				continue
			}
			ch, err := parseNotification(n.Extra)
			if err != nil {
				logrus.WithError(err).WithField("payload", n.Extra).Warn("Ignoring malformed driver change")
				continue
			}
			l.target.Notify(ch)
		case <-time.After(90 * time.Second):
			go listener.Ping()
		}
	}
}

func parseNotification(payload string) (Change, error) {
	var ch Change
	if err := json.Unmarshal([]byte(payload), &ch); err != nil {
		return Change{}, err
	}
	if ch.DriverID == "" || ch.CompanyID == "" {
		return Change{}, fmt.Errorf("change without driver or company id")
	}
	return ch, nil
}
