// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const testOrigin = "https://console.example.com"

func newWSServer(t *testing.T, hub *Hub) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, []string{testOrigin}, w, r)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return websocket.DefaultDialer.Dial(url, header)
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
	return msg
}

func TestServeWS_ReceivesAlerts(t *testing.T) {
	hub := startHub(t)
	url := newWSServer(t, hub)

	conn, _, err := dial(t, url, testOrigin)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	waitForClients(t, hub, 1)

	hub.BroadcastJSON(MessageTypeAlert, map[string]string{"id": "alert-7", "severity": "Critical"})

	msg := readMessage(t, conn)
	if msg.Type != MessageTypeAlert {
		t.Errorf("Type = %q, want %q", msg.Type, MessageTypeAlert)
	}
	data, ok := msg.Data.(map[string]interface{})
	if !ok || data["id"] != "alert-7" {
		t.Errorf("Data = %v", msg.Data)
	}
}

func TestServeWS_PingPong(t *testing.T) {
	hub := startHub(t)
	url := newWSServer(t, hub)

	conn, _, err := dial(t, url, testOrigin)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatal(err)
	}
	if msg := readMessage(t, conn); msg.Type != MessageTypePong {
		t.Errorf("Type = %q, want pong", msg.Type)
	}
}

func TestServeWS_DisconnectUnregisters(t *testing.T) {
	hub := startHub(t)
	url := newWSServer(t, hub)

	conn, _, err := dial(t, url, testOrigin)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	waitForClients(t, hub, 1)

	_ = conn.Close()
	waitForClients(t, hub, 0)
}

func TestServeWS_RejectsOrigins(t *testing.T) {
	hub := startHub(t)
	url := newWSServer(t, hub)

	for _, origin := range []string{"", "https://evil.example.com"} {
		conn, resp, err := dial(t, url, origin)
		if err == nil {
			conn.Close()
			t.Errorf("origin %q: expected handshake failure", origin)
			continue
		}
		if resp == nil || resp.StatusCode != http.StatusForbidden {
			t.Errorf("origin %q: response = %v, want 403", origin, resp)
		}
	}
	if hub.GetClientCount() != 0 {
		t.Errorf("client count = %d, want 0", hub.GetClientCount())
	}
}

func TestCheckOrigin_Wildcard(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws/alerts", nil)
	r.Header.Set("Origin", "https://anything.example.com")
	if !checkOrigin(r, []string{"*"}) {
		t.Error("wildcard should accept any origin")
	}
}

func TestSanitizeLogValue(t *testing.T) {
	if got := sanitizeLogValue("a\nb\r\x00c"); got != "abc" {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
	if got := sanitizeLogValue(strings.Repeat("x", 500)); len(got) != 200 {
		t.Errorf("len = %d, want 200", len(got))
	}
}
