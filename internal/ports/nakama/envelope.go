package nakama

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"sketchrelay/internal/domain"
)

// toFields renders any JSON-serializable value as the generic field map
// protobuf Structs and Nakama notifications are built from.
func toFields(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	fields := map[string]interface{}{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal value into fields: %w", err)
	}
	return fields, nil
}

// marshalEnvelope wraps an event payload into the broadcast wire shape
// {"kind": ..., "data": {...}} and renders it with protojson so every client
// SDK decodes it the same way.
func marshalEnvelope(kind string, payload interface{}) ([]byte, error) {
	data, err := toFields(payload)
	if err != nil {
		return nil, err
	}
	envelope, err := structpb.NewStruct(map[string]interface{}{
		"kind": kind,
		"data": data,
	})
	if err != nil {
		return nil, fmt.Errorf("build %s envelope: %w", kind, err)
	}
	return protojson.Marshal(envelope)
}

// marshalLabel renders the queryable match label for a party. The keys must
// stay aligned with the find_party match listing query.
func marshalLabel(party *domain.Party, maxParticipants int) (string, error) {
	fields, err := toFields(domain.ComputeLabel(party, maxParticipants))
	if err != nil {
		return "", err
	}
	label, err := structpb.NewStruct(fields)
	if err != nil {
		return "", fmt.Errorf("build label: %w", err)
	}
	raw, err := protojson.Marshal(label)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
