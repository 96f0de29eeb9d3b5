// Package api defines the messages exchanged between relay connections
// and the coordinator.
//
// Each message is a JSON-encoded "packet" of the following structure:
//
//	t - (required) one of the predefined packet types;
//	p - (optional) packet payload, its schema depends on the type.
//
// Example of a client asking to join the session "ruby":
//
//	{"t":2,"p":{"role":"client","sessionId":"ruby"}}
package api

import (
	"errors"

	"github.com/goccy/go-json"
	"github.com/rossorudolph/cci-node-socket-mobile-data/pkg/network"
)

type PT uint8

// Packet codes.
const (
	AssignedId      PT = 1
	Join            PT = 2
	HostConnect     PT = 3
	JoinResult      PT = 4
	ClientConnected PT = 5
	RelayPayload    PT = 6
	ClientDeparted  PT = 7
	HostDeparted    PT = 8
	Error           PT = 9
)

func (p PT) String() string {
	switch p {
	case AssignedId:
		return "AssignedId"
	case Join:
		return "Join"
	case HostConnect:
		return "HostConnect"
	case JoinResult:
		return "JoinResult"
	case ClientConnected:
		return "ClientConnected"
	case RelayPayload:
		return "RelayPayload"
	case ClientDeparted:
		return "ClientDeparted"
	case HostDeparted:
		return "HostDeparted"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

type In struct {
	T       PT              `json:"t"`
	Payload json.RawMessage `json:"p,omitempty"` // decoded in a second pass by type
}

type Out struct {
	T       PT  `json:"t"`
	Payload any `json:"p,omitempty"`
}

var (
	ErrMalformed = errors.New("malformed")
	ErrUnknown   = errors.New("unknown packet type")
)

// Decode reads a raw socket message into a packet.
func Decode(data []byte) (In, error) {
	var in In
	if err := json.Unmarshal(data, &in); err != nil {
		return in, errors.Join(ErrMalformed, err)
	}
	return in, nil
}

// Encode makes a wire message of the packet type and its payload.
func Encode(t PT, payload any) ([]byte, error) { return json.Marshal(Out{T: t, Payload: payload}) }

// Unwrap decodes the payload of a packet into T.
func Unwrap[T any](data []byte) (*T, error) {
	out := new(T)
	if len(data) == 0 {
		return out, ErrMalformed
	}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}
	return out, nil
}

// Roles of a join request.
const (
	RoleHost   = "host"
	RoleClient = "client"
)

type (
	JoinRequest struct {
		Role      string `json:"role"`
		SessionId string `json:"sessionId,omitempty"`
	}
	HostConnectResponse struct {
		SessionId string `json:"sessionId,omitempty"`
		Status    bool   `json:"status"`
		Error     string `json:"error,omitempty"`
	}
	JoinResultResponse struct {
		Status bool `json:"status"`
	}
	ClientConnectedRequest struct {
		SessionId string `json:"sessionId"`
	}
	ClientConnectedNotice struct {
		Id        network.Uid `json:"id"`
		SessionId string      `json:"sessionId"`
	}
	RelayRequest struct {
		SessionId string          `json:"sessionId,omitempty"`
		Data      json.RawMessage `json:"data,omitempty"`
		// To addresses a single client of the session, hosts only.
		To network.Uid `json:"to,omitempty"`
	}
	RelayMessage struct {
		Id        network.Uid     `json:"id"`
		SessionId string          `json:"sessionId"`
		Data      json.RawMessage `json:"data,omitempty"`
	}
	ClientDepartedNotice struct {
		Id network.Uid `json:"id"`
	}
	HostDepartedNotice struct {
		SessionId string `json:"sessionId"`
	}
	ErrorResponse struct {
		Message string `json:"message"`
	}
)
