package hospital

import (
	"context"

	"github.com/aliiexe/AmbuGo/internal/platform/auth"
	"github.com/aliiexe/AmbuGo/internal/platform/websocket"
)

// AuthorizeTopic admits a dashboard client to its own hospital's topic only.
// Admins may follow any topic.
func (s *Service) AuthorizeTopic(ctx context.Context, client *websocket.Client, topic string) bool {
	if auth.HasRole(client.Roles, auth.RoleAdmin) {
		return true
	}
	if !auth.HasRole(client.Roles, auth.RoleHospital) || client.UserID == "" {
		return false
	}
	h, err := s.hospitals.GetByUserID(ctx, client.UserID)
	if err != nil {
		return false
	}
	return topic == websocket.HospitalTopic(h.ID.String())
}
