package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"changekit/internal/models"

	"github.com/gorilla/websocket"
)

const challengeContent = `{"stages":[
	{"id":"s1","name":"Plan","task":"Write the rollout plan","time_limit":90},
	{"id":"s2","name":"Pitch","task":"Pitch it to the team","time_limit":45}
]}`

func TestSessionSocketPushesCountdown(t *testing.T) {
	srv := newTestServer(t, 100)
	srv.backend.games = append(srv.backend.games, models.Game{
		GameID: "c1", GameType: "challenge", Points: 80, Content: json.RawMessage(challengeContent),
	})
	v := srv.newVisitor(t)

	rec := v.do("POST", "/api/play/challenge/c1", "", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start = %d: %s", rec.Code, rec.Body.String())
	}
	var session SessionViewData
	decodeBody(t, rec, &session)
	if !session.Timed || session.Remaining != 90 || session.RemainingClock != "1:30" {
		t.Fatalf("session = %+v", session)
	}

	ts := httptest.NewServer(srv.handler)
	defer ts.Close()

	header := http.Header{}
	header.Set("Cookie", v.cookie.Name+"="+v.cookie.Value)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/sessions/" + session.SessionID + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial failed: %v (response %v)", err, resp)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg TimerMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if msg.Type != "timer" || msg.ItemID != "s1" || msg.Remaining != 90 || msg.Expired {
		t.Errorf("timer message = %+v", msg)
	}

	// closing the session closes the socket
	srv.registry.CloseAll()
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("expected a normal close, got %v", err)
	}
}

func TestSessionSocketRejectsStrangers(t *testing.T) {
	srv := newTestServer(t, 100)
	ts := httptest.NewServer(srv.handler)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/sessions/unknown/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("dial to an unknown session succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("response = %v, want 404", resp)
	}
}
