package listener

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// ChangeHandler receives row-change notifications emitted by Postgres
// triggers on the orders, routes and drivers tables.
type ChangeHandler interface {
	HandleChange(table string, data map[string]interface{}) error
}

type ListenerConfig struct {
	PgConnStr string
	Channel   string
	Timeout   time.Duration
}

type DBListener struct {
	config  ListenerConfig
	handler ChangeHandler
}

type changePayload struct {
	Table string                 `json:"table"`
	Data  map[string]interface{} `json:"data"`
}

func NewDBListener(config ListenerConfig, handler ChangeHandler) *DBListener {
	if config.Channel == "" {
		config.Channel = "data_change"
	}
	return &DBListener{
		config:  config,
		handler: handler,
	}
}

// Start blocks, forwarding notifications to the handler until the process
// exits. Dashboard websocket fanout hangs off this loop.
func (d *DBListener) Start() error {
	listener := pq.NewListener(d.config.PgConnStr, 10*time.Second, d.config.Timeout, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "Listener error: %v\n", err)
		}
	})
	if err := listener.Listen(d.config.Channel); err != nil {
		return err
	}

	logrus.Infof("Listening for PostgreSQL notifications on channel %q", d.config.Channel)

	for {
		d.waitForNotification(listener)
	}
}

func (d *DBListener) waitForNotification(listener *pq.Listener) {
	select {
	case notification := <-listener.Notify:
		if notification != nil {
			d.handleNotification(notification)
		}
	case <-time.After(90 * time.Second):
		go func() {
			if err := listener.Ping(); err != nil {
				logrus.Warnf("Listener ping failed: %v", err)
			}
		}()
	}
}

func (d *DBListener) handleNotification(notification *pq.Notification) {
	var payload changePayload
	err := json.Unmarshal([]byte(notification.Extra), &payload)
	if err != nil {
		logrus.Errorf("Error unmarshalling notification payload: %v", err)
		return
	}

	if err := d.handler.HandleChange(payload.Table, payload.Data); err != nil {
		logrus.Errorf("Error handling notification: %v", err)
	}
}
