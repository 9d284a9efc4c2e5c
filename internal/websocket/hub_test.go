package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"lexora-backend/internal/logger"
	"lexora-backend/internal/middleware"
	"lexora-backend/internal/models"
)

func TestHub_RejectsMissingOrInvalidToken(t *testing.T) {
	hub := NewHub(nil, middleware.NewJWTAuth("secret"), logger.NewNop())

	for _, target := range []string{"/ws", "/ws?token=garbage"} {
		rr := httptest.NewRecorder()
		hub.HandleWebSocket(rr, httptest.NewRequest(http.MethodGet, target, nil))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected status %d, got %d", target, http.StatusUnauthorized, rr.Code)
		}
	}
}

func TestHub_SendToUser(t *testing.T) {
	auth := middleware.NewJWTAuth("secret")
	hub := NewHub(nil, auth, logger.NewNop())
	defer hub.Close()

	server := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer server.Close()

	userID := uuid.New()
	token, err := auth.GenerateAccessToken(userID, time.Hour)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.connectionCount(userID) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("connection was never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.SendToUser(userID, models.WSMessage{Type: models.WSTypeReviewDue, Payload: models.ReviewDue{DueCount: 4}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var msg struct {
		Type    string           `json:"type"`
		Payload models.ReviewDue `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to decode message: %v", err)
	}
	if msg.Type != models.WSTypeReviewDue || msg.Payload.DueCount != 4 {
		t.Fatalf("unexpected message: %+v", msg)
	}
}
