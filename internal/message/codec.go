package message

import (
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"

	"github.com/segyhp/claimant-engine/internal/domain"
	customError "github.com/segyhp/claimant-engine/pkg/errors"
)

var validate = validator.New()

// EncodePayload serialises a message payload.
func EncodePayload(payload any) ([]byte, error) {
	return json.Marshal(payload)
}

// DecodePayload parses and validates a message's payload. Malformed payloads are reported as
// invariant violations since retrying them can never succeed.
func DecodePayload[T any](msg *domain.Message) (T, error) {
	var payload T
	if err := json.Unmarshal(msg.MessagePayload, &payload); err != nil {
		return payload, customError.WrapInvalidPayload(string(msg.MessageType), err)
	}
	if err := validate.Struct(payload); err != nil {
		return payload, customError.WrapInvalidPayload(string(msg.MessageType), err)
	}
	return payload, nil
}
