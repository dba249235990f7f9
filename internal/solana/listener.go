// Package solana watches a collection's on-chain activity over the RPC
// websocket so cached holder counts can be refreshed soon after transfers
// instead of waiting for the next scheduled sweep.
package solana

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Solstice-Labs/HolderPerks/internal/utils"
)

// debounceInterval caps how often collection activity may trigger a
// refresh; a burst of transfers collapses into one sweep.
const debounceInterval = 30 * time.Second

type Listener struct {
	Conn       *websocket.Conn
	URL        string
	Collection string

	onActivity  func()
	lastTrigger time.Time
}

// NewListener connects to the RPC websocket and subscribes to log events
// mentioning the collection mint. onActivity fires, debounced, whenever
// the collection sees activity.
func NewListener(url, collection string, onActivity func()) (*Listener, error) {
	l := &Listener{
		URL:        url,
		Collection: collection,
		onActivity: onActivity,
	}
	if err := l.Connect(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Listener) Connect() error {
	logger := utils.GetLogger()
	logger.Infof("connecting to Solana websocket: %s", l.URL)

	conn, _, err := websocket.DefaultDialer.Dial(l.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", l.URL, err)
	}

	sub := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "logsSubscribe",
		"params": []interface{}{
			map[string]interface{}{"mentions": []string{l.Collection}},
			map[string]interface{}{"commitment": "confirmed"},
		},
	}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return fmt.Errorf("subscribe: %w", err)
	}

	logger.Info("subscribed to collection log events")
	l.Conn = conn
	return nil
}

// Run reads notifications until the connection dies, then reconnects.
// It never returns.
func (l *Listener) Run() {
	logger := utils.GetLogger()
	defer l.Conn.Close()
	for {
		_, message, err := l.Conn.ReadMessage()
		if err != nil {
			logger.Warnf("websocket read failed: %v", err)
			l.reconnect()
			continue
		}
		l.processMessage(message)
	}
}

func (l *Listener) reconnect() {
	logger := utils.GetLogger()
	for {
		time.Sleep(5 * time.Second)
		if err := l.Connect(); err != nil {
			logger.Warnf("reconnect failed: %v", err)
			continue
		}
		logger.Info("reconnected to Solana websocket")
		return
	}
}

func (l *Listener) processMessage(message []byte) {
	var msg struct {
		Method string `json:"method"`
	}
	if err := json.Unmarshal(message, &msg); err != nil {
		utils.GetLogger().Warnf("unparseable websocket message: %v", err)
		return
	}
	if msg.Method != "logsNotification" {
		// Subscription acks and pings carry no activity.
		return
	}

	if time.Since(l.lastTrigger) < debounceInterval {
		return
	}
	l.lastTrigger = time.Now()
	utils.GetLogger().Debug("collection activity observed, kicking refresh")
	if l.onActivity != nil {
		l.onActivity()
	}
}
