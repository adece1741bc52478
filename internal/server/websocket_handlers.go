package server

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"classline/internal/messaging"
	"classline/internal/models"
	"classline/internal/realtime"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type wsEnvelope struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversationId,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

func wsSend(c *realtime.Client, msgType, conversationID string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	out, err := json.Marshal(wsEnvelope{Type: msgType, ConversationID: conversationID, Payload: body})
	if err != nil {
		return
	}
	c.TrySend(out)
}

// WebSocketChatHandler handles WebSocket connections for real-time messaging.
// Every delivery pushed down the socket is a full snapshot, so a client that
// missed events only needs the next frame to be current.
func (s *Server) WebSocketChatHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ctx := context.Background()

		userID, _ := conn.Locals("userID").(string)
		if userID == "" {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		// The conversation list stream is always on for a connected client.
		cancelList := s.broker.SubscribeConversations(ctx, userID, func(conversations []models.Conversation) {
			wsSend(client, "conversations", "", conversations)
		})
		s.hub.AddCancel(client, cancelList)

		// Per-conversation message streams, joined and left on demand.
		var mu sync.Mutex
		joined := make(map[string]func())
		s.hub.AddCancel(client, func() {
			mu.Lock()
			defer mu.Unlock()
			for _, cancel := range joined {
				cancel()
			}
			joined = nil
		})

		client.IncomingHandler = func(c *realtime.Client, raw []byte) {
			var msg wsEnvelope
			if err := json.Unmarshal(raw, &msg); err != nil {
				log.Printf("WebSocket: invalid frame from user %s", userID)
				return
			}

			switch msg.Type {
			case "join":
				if msg.ConversationID == "" || !s.canSubscribe(ctx, userID, msg.ConversationID) {
					return
				}
				mu.Lock()
				if joined == nil {
					mu.Unlock()
					return
				}
				if _, already := joined[msg.ConversationID]; already {
					mu.Unlock()
					return
				}
				// Reserve the slot before subscribing so a concurrent join of
				// the same conversation is a no-op.
				joined[msg.ConversationID] = func() {}
				mu.Unlock()

				cancel := s.broker.SubscribeMessages(ctx, userID, msg.ConversationID, func(messages []models.Message) {
					wsSend(c, "messages", msg.ConversationID, messages)
				})

				mu.Lock()
				if joined == nil {
					mu.Unlock()
					cancel()
					return
				}
				joined[msg.ConversationID] = cancel
				mu.Unlock()

			case "leave":
				mu.Lock()
				cancel := joined[msg.ConversationID]
				delete(joined, msg.ConversationID)
				mu.Unlock()
				if cancel != nil {
					cancel()
				}

			case "markRead":
				if msg.ConversationID == "" {
					return
				}
				if err := s.messagingSvc.MarkRead(ctx, msg.ConversationID, userID); err != nil {
					log.Printf("WebSocket: markRead failed for user %s: %v", userID, err)
				}

			default:
				// Unknown frame types are ignored.
			}
		}

		go client.WritePump()
		client.ReadPump()
	})
}

// canSubscribe checks whether a user may stream a conversation. An existing
// conversation requires membership; a conversation with no messages yet is
// allowed when the key itself names the user.
func (s *Server) canSubscribe(ctx context.Context, userID, conversationID string) bool {
	conv, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err == nil {
		return conv.HasParticipant(userID)
	}
	if models.CodeOf(err) != models.CodeNotFound {
		return false
	}

	kind, _, parseErr := messaging.ParseKey(conversationID)
	if parseErr != nil || kind != models.TypeDirect {
		return false
	}
	return strings.HasPrefix(conversationID, userID+"-") ||
		strings.HasSuffix(conversationID, "-"+userID)
}
