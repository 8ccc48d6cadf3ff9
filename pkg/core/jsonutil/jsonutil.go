// Package jsonutil decodes JSON documents leniently. Record snapshots and
// policy files are sometimes hand-edited, so strict decoding alone rejects
// inputs a human considers obviously valid.
package jsonutil

import (
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// DecodeLenient tries multiple decoding strategies in order of strictness:
//
//  1. Standard JSON.
//  2. Repaired JSON (fixes single quotes, trailing commas, unquoted keys,
//     unclosed brackets).
//  3. Hjson, the most permissive (comments, optional commas, multiline
//     strings).
func DecodeLenient(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err == nil {
		return nil
	}

	if repaired, err := jsonrepair.RepairJSON(string(data)); err == nil {
		if err := json.Unmarshal([]byte(repaired), v); err == nil {
			return nil
		}
	}

	if err := hjson.Unmarshal(data, v); err == nil {
		return nil
	}

	return fmt.Errorf("input is not decodable as JSON, repaired JSON or Hjson")
}

// DecodeGeneric is DecodeLenient into an untyped document, for callers that
// need to inspect shape before committing to a schema.
func DecodeGeneric(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := DecodeLenient(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
