package ws

import (
	"encoding/json"
)

// MessageType tags outbound and inbound WebSocket messages. The names match
// the events the web frontend already speaks.
type MessageType string

// Outbound.
const (
	MsgStatus      MessageType = "botStatus"
	MsgChatHistory MessageType = "chatHistory"
	MsgChat        MessageType = "chatMessage"
	MsgPlayerList  MessageType = "playerList"
	MsgStats       MessageType = "botStats"
	MsgError       MessageType = "error"
)

// Inbound viewer intents.
const (
	MsgConnect        MessageType = "connectBot"
	MsgDisconnect     MessageType = "disconnectBot"
	MsgSendMessage    MessageType = "sendMessage"
	MsgAdminAction    MessageType = "adminAction"
	MsgRequestPlayers MessageType = "requestPlayerList"
	MsgRequestStats   MessageType = "requestStats"
)

type WSMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// inboundMessage defers payload decoding until the type is known.
type inboundMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ConnectPayload carries a connect intent. Absent fields fall back to the
// configured default server.
type ConnectPayload struct {
	ServerIP   string `json:"serverIP"`
	ServerPort int    `json:"serverPort"`
	Username   string `json:"username"`
	Auth       string `json:"auth"`
}

type SendMessagePayload struct {
	Message string `json:"message"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
