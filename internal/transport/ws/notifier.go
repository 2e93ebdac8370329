package ws

import (
	"log"

	"github.com/quivio/quivio/internal/domain"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

// CapsuleOpened tells the owner's connected clients that a capsule just
// transitioned to opened, whether by their own request or by the sweeper.
func (n *HubNotifier) CapsuleOpened(capsule *domain.Capsule) {
	openedAt := capsule.CreatedAt
	if capsule.OpenedAt != nil {
		openedAt = *capsule.OpenedAt
	}
	evt, err := NewEvent(EventTypeCapsuleOpened, CapsuleOpenedPayload{
		CapsuleID: capsule.ID,
		Title:     capsule.Title,
		OpenedAt:  openedAt,
	})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.SendToUser(capsule.UserID, evt)
}
