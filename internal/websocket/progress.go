package websocket

import (
	"github.com/adaptmath/backend/internal/knowledge"
)

// masteryMessageType labels every frame pushed on the progress stream.
const masteryMessageType = "mastery_progress"

// ProgressNotifier adapts the hub to the knowledge service's Notifier
// interface.
type ProgressNotifier struct {
	hub *Hub
}

// NewProgressNotifier creates a notifier broadcasting through hub.
func NewProgressNotifier(hub *Hub) *ProgressNotifier {
	return &ProgressNotifier{hub: hub}
}

// NotifyProgress pushes a recomputed mastery score to the student's
// connected clients. Most updates arrive while no device is streaming, so
// those skip the hub's broadcast loop entirely.
func (n *ProgressNotifier) NotifyProgress(userID int64, update *knowledge.ProgressUpdate) {
	if !n.HasConnectedClients(userID) {
		return
	}
	n.hub.Broadcast(&MasteryMessage{
		Type:        masteryMessageType,
		UserID:      userID,
		SkillID:     update.SkillID,
		SkillName:   update.SkillName,
		Progression: update.Progression,
	})
}

// HasConnectedClients reports whether a student has any open progress-stream
// connections.
func (n *ProgressNotifier) HasConnectedClients(userID int64) bool {
	return n.hub.ClientCount(userID) > 0
}
