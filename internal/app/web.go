// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/navsense/internal/config"
	"github.com/relabs-tech/navsense/internal/readings"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// webHub keeps the latest snapshot plus the set of live websocket clients.
type webHub struct {
	mu       sync.RWMutex
	last     readings.Snapshot
	haveSnap bool
	conns    map[*websocket.Conn]bool
}

func newWebHub() *webHub {
	return &webHub{conns: make(map[*websocket.Conn]bool)}
}

func (h *webHub) broadcast(logger *logrus.Logger, v interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(v); err != nil {
			logger.WithError(err).Debug("websocket write failed, dropping client")
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

// RunWeb serves the latest snapshot as JSON and streams snapshots and events
// over a websocket. Blocks until ctx is cancelled.
func RunWeb(ctx context.Context, logger *logrus.Logger) error {
	cfg := config.Get()
	hub := newWebHub()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	readToken := client.Subscribe(cfg.TopicReadings, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s readings.Snapshot
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			logger.WithError(err).Warn("snapshot unmarshal error")
			return
		}
		hub.mu.Lock()
		hub.last = s
		hub.haveSnap = true
		hub.mu.Unlock()
		hub.broadcast(logger, map[string]interface{}{"type": "snapshot", "data": s})
	})
	readToken.Wait()
	if readToken.Error() != nil {
		return readToken.Error()
	}

	evToken := client.Subscribe(cfg.TopicEvents, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var e readings.Event
		if err := json.Unmarshal(msg.Payload(), &e); err != nil {
			logger.WithError(err).Warn("event unmarshal error")
			return
		}
		hub.broadcast(logger, map[string]interface{}{"type": "event", "data": e})
	})
	evToken.Wait()
	if evToken.Error() != nil {
		return evToken.Error()
	}

	mux := http.NewServeMux()

	// Latest snapshot as plain JSON.
	mux.HandleFunc("/api/reading", func(w http.ResponseWriter, r *http.Request) {
		hub.mu.RLock()
		defer hub.mu.RUnlock()

		if !hub.haveSnap {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(hub.last); err != nil {
			logger.WithError(err).Warn("json encode error")
		}
	})

	// Live stream.
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WithError(err).Warn("websocket upgrade error")
			return
		}
		hub.mu.Lock()
		hub.conns[conn] = true
		hub.mu.Unlock()

		// Reader loop only notices the close; clients never send payloads.
		go func() {
			defer func() {
				hub.mu.Lock()
				delete(hub.conns, conn)
				hub.mu.Unlock()
				conn.Close()
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})

	// Static dashboard from ./web as the root.
	mux.Handle("/", http.FileServer(http.Dir("web")))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.WithField("addr", srv.Addr).Info("web server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
