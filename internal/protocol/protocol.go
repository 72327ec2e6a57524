package protocol

import (
	"encoding/json"
	"fmt"

	"craftguard/schemas"
)

const Version = "1.0"

// Message types.
const (
	TypeHello          = "HELLO"
	TypeWelcome        = "WELCOME"
	TypeGridSet        = "GRID_SET"
	TypeCraft          = "CRAFT"
	TypeCraftResult    = "CRAFT_RESULT"
	TypeContainerClose = "CONTAINER_CLOSE"
	TypeError          = "ERROR"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

var inboundSchemas = map[string]string{
	TypeHello:   schemas.Hello,
	TypeGridSet: schemas.GridSet,
	TypeCraft:   schemas.Craft,
}

// ValidateInbound checks a client frame against the schema for its type.
func ValidateInbound(msgType string, b []byte) error {
	name, ok := inboundSchemas[msgType]
	if !ok {
		return fmt.Errorf("unknown message type %q", msgType)
	}
	return schemas.Validate(name, b)
}
