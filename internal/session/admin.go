package session

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoPrivilege rejects admin actions when the session lacks
	// elevated capability.
	ErrNoPrivilege = errors.New("bot does not have sufficient permissions")
	// ErrUnknownIntent rejects unrecognized admin action kinds.
	ErrUnknownIntent = errors.New("unknown admin action")
)

// AdminIntent is a typed administrative request from a viewer.
type AdminIntent struct {
	Kind     string `json:"action"`
	Target   string `json:"target"`
	Reason   string `json:"reason"`
	GameMode string `json:"gameMode"`
}

// Admin intent kinds. "tp" reuses the Reason field as the destination
// player.
const (
	AdminSelfGamemode = "selfGamemode"
	AdminKick         = "kick"
	AdminBan          = "ban"
	AdminKill         = "kill"
	AdminTeleport     = "tp"
	AdminGamemode     = "gamemode"
)

// AdminAction renders an intent into exactly one outgoing chat command,
// sends it, and publishes a synthesized system chat message describing the
// action as if it had arrived from the adapter. Rejections (not connected,
// no privilege, unknown kind) only reach the requesting viewer; session
// state is unaffected.
func (m *Machine) AdminAction(intent AdminIntent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Connected || m.adapter == nil {
		return ErrNotConnected
	}
	if !m.privileged() {
		return ErrNoPrivilege
	}

	command, err := renderAdminCommand(intent)
	if err != nil {
		return err
	}
	if err := m.adapter.SendChat(command); err != nil {
		return fmt.Errorf("failed to perform %s: %w", intent.Kind, err)
	}

	m.appendChatLocked(ChatMessage{
		Text:      describeAdminAction(intent),
		Timestamp: m.now(),
		IsSystem:  true,
		Category:  CategoryAdmin,
	})
	return nil
}

func renderAdminCommand(intent AdminIntent) (string, error) {
	switch intent.Kind {
	case AdminSelfGamemode:
		return "/gamemode " + intent.GameMode, nil
	case AdminKick, AdminBan:
		if intent.Reason != "" {
			return fmt.Sprintf("/%s %s %s", intent.Kind, intent.Target, intent.Reason), nil
		}
		return fmt.Sprintf("/%s %s", intent.Kind, intent.Target), nil
	case AdminKill:
		return "/kill " + intent.Target, nil
	case AdminTeleport:
		return fmt.Sprintf("/tp %s %s", intent.Target, intent.Reason), nil
	case AdminGamemode:
		return fmt.Sprintf("/gamemode %s %s", intent.GameMode, intent.Target), nil
	default:
		return "", ErrUnknownIntent
	}
}

func describeAdminAction(intent AdminIntent) string {
	switch intent.Kind {
	case AdminSelfGamemode:
		return "Changed own gamemode to " + intent.GameMode
	case AdminTeleport:
		return fmt.Sprintf("Teleported %s to %s", intent.Target, intent.Reason)
	default:
		var b strings.Builder
		fmt.Fprintf(&b, "Admin action: %s performed on %s", intent.Kind, intent.Target)
		if intent.Reason != "" {
			fmt.Fprintf(&b, " (Reason: %s)", intent.Reason)
		}
		if intent.GameMode != "" {
			fmt.Fprintf(&b, " (Gamemode: %s)", intent.GameMode)
		}
		return b.String()
	}
}
