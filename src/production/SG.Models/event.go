package sgmodels

import (
	"encoding/json"
	"fmt"
)

// CardEvent is one card verification message from a reader.
type CardEvent struct {
	CardReader int    `json:"card_reader"`
	CardID     string `json:"card_id"`
}

// FingerprintEvent is one fingerprint verification message from a reader.
type FingerprintEvent struct {
	FingerprintReader int `json:"fingerprint_reader"`
	FingerprintID     int `json:"fingerprint_id"`
}

// cardEventWire mirrors CardEvent with pointer fields so that missing
// required fields can be told apart from zero values.
type cardEventWire struct {
	CardReader *int    `json:"card_reader"`
	CardID     *string `json:"card_id"`
}

type fingerprintEventWire struct {
	FingerprintReader *int `json:"fingerprint_reader"`
	FingerprintID     *int `json:"fingerprint_id"`
}

// DecodeCardEvent parses and validates a card verification payload.
// Both card_reader (int) and card_id (string) are required; a wrong JSON
// type for either field is rejected by the unmarshaler.
func DecodeCardEvent(payload []byte) (CardEvent, error) {
	var wire cardEventWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return CardEvent{}, fmt.Errorf("invalid card payload: %w", err)
	}
	if wire.CardReader == nil {
		return CardEvent{}, fmt.Errorf("missing required field card_reader")
	}
	if wire.CardID == nil {
		return CardEvent{}, fmt.Errorf("missing required field card_id")
	}
	if *wire.CardID == "" {
		return CardEvent{}, fmt.Errorf("card_id must not be empty")
	}
	return CardEvent{CardReader: *wire.CardReader, CardID: *wire.CardID}, nil
}

// DecodeFingerprintEvent parses and validates a fingerprint verification
// payload. Both fingerprint_reader and fingerprint_id are required ints.
func DecodeFingerprintEvent(payload []byte) (FingerprintEvent, error) {
	var wire fingerprintEventWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return FingerprintEvent{}, fmt.Errorf("invalid fingerprint payload: %w", err)
	}
	if wire.FingerprintReader == nil {
		return FingerprintEvent{}, fmt.Errorf("missing required field fingerprint_reader")
	}
	if wire.FingerprintID == nil {
		return FingerprintEvent{}, fmt.Errorf("missing required field fingerprint_id")
	}
	return FingerprintEvent{
		FingerprintReader: *wire.FingerprintReader,
		FingerprintID:     *wire.FingerprintID,
	}, nil
}
