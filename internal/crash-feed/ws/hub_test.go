package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestSubscribeReceivesBroadcast(t *testing.T) {
	hub := NewHub(func(r *http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close()

	if err := conn.WriteJSON(ClientMsg{Type: "subscribe", Stream: "rounds"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	// ping confirma que o subscribe já foi processado pelo hub
	if err := conn.WriteJSON(ClientMsg{Type: "ping"}); err != nil {
		t.Fatalf("ping: %v", err)
	}
	var pong map[string]string
	if err := conn.ReadJSON(&pong); err != nil || pong["type"] != "pong" {
		t.Fatalf("pong = %v, err %v", pong, err)
	}

	hub.Broadcast(Update{Stream: "rounds", Payload: map[string]string{"phase": "betting"}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Update
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if got.Stream != "rounds" {
		t.Fatalf("stream = %q, want rounds", got.Stream)
	}
}

func TestBroadcastSkipsOtherStreams(t *testing.T) {
	hub := NewHub(func(r *http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close()

	if err := conn.WriteJSON(ClientMsg{Type: "subscribe", Stream: "bets"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := conn.WriteJSON(ClientMsg{Type: "ping"}); err != nil {
		t.Fatalf("ping: %v", err)
	}
	var pong map[string]string
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatalf("pong: %v", err)
	}

	hub.Broadcast(Update{Stream: "rounds", Payload: "x"})

	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var got Update
	if err := conn.ReadJSON(&got); err == nil {
		t.Fatalf("received frame for unsubscribed stream: %+v", got)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub(func(r *http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close()

	for _, msg := range []ClientMsg{
		{Type: "subscribe", Stream: "rounds"},
		{Type: "unsubscribe", Stream: "rounds"},
		{Type: "ping"},
	} {
		if err := conn.WriteJSON(msg); err != nil {
			t.Fatalf("write %v: %v", msg, err)
		}
	}
	var pong map[string]string
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatalf("pong: %v", err)
	}

	hub.Broadcast(Update{Stream: "rounds", Payload: "x"})

	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var got Update
	if err := conn.ReadJSON(&got); err == nil {
		t.Fatalf("received frame after unsubscribe: %+v", got)
	}
}
