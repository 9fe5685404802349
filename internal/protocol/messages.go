// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

// Client → server message types accepted by the status feed.
const (
	MessagePing   = "ping"
	MessageStatus = "status"
)

// ClientMessage is the envelope for client → server frames on the status
// feed. The feed only understands keep-alives and status requests.
type ClientMessage struct {
	Type string `json:"type"`
}

// NewPing builds the keep-alive frame sent by the ping loop.
func NewPing() ClientMessage {
	return ClientMessage{Type: MessagePing}
}

// NewStatusRequest builds a frame asking the feed for a status_response.
func NewStatusRequest() ClientMessage {
	return ClientMessage{Type: MessageStatus}
}
