// Package netbus implements the typed message bus and per-link delay
// model miners communicate through (spec §4.2, C2).
package netbus

// Action names the kind of a wire message (spec §6 "event-name tables").
// These are also the constants published on the pub-sub channel at run
// start, matching the original simulator's Miner class attributes.
type Action int

const (
	BlockRequest Action = iota + 1
	BlockResponse
	HeadNew
	BlockNew
	AttackWin
	AttackLose
)

func (a Action) String() string {
	switch a {
	case BlockRequest:
		return "BLOCK_REQUEST"
	case BlockResponse:
		return "BLOCK_RESPONSE"
	case HeadNew:
		return "HEAD_NEW"
	case BlockNew:
		return "BLOCK_NEW"
	case AttackWin:
		return "ATTACK_WIN"
	case AttackLose:
		return "ATTACK_LOSE"
	default:
		return "UNKNOWN"
	}
}

// Envelope is consumed by its Destination endpoint only. Payload is a
// chain.Fingerprint for requests/head announcements, or a chain.Block for
// responses (§3 data model).
type Envelope struct {
	Origin      int64
	Destination int64
	Action      Action
	Payload     interface{}
}
