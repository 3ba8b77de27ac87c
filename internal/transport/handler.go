package transport

import "example.com/drawguess/internal/protocol"

// Handler receives connection events. On the hub, callbacks for one peer
// arrive in order from that peer's reader goroutine; different peers are
// concurrent.
type Handler interface {
	PeerJoined(peerID string)
	PeerLeft(peerID string)
	MessageReceived(senderID string, msg protocol.Message)
	ConnectionLost(err error)
}

// HostPeerID is the sender reported to a guest for every host frame.
const HostPeerID = "host"
