package project

import (
	"bytes"
	"encoding/json"

	appLog "chorecal/internal/log"
	"chorecal/internal/model"
)

// envelopeKeys are the object keys a collection may be wrapped under.
var envelopeKeys = []string{"data", "items", "chores", "tasks", "results"}

// Decode reads a collection of items from raw JSON. It never fails: input
// that is not an array (or an object wrapping one) decodes to an empty
// slice, and elements that do not decode are skipped. Both are logged.
func Decode(raw []byte) []model.RecurringItem {
	out := make([]model.RecurringItem, 0)

	elems, ok := collection(raw, 0)
	if !ok {
		appLog.Warn("project: input is not a collection; nothing to project", "bytes", len(raw))
		return out
	}

	for i, elem := range elems {
		var it model.RecurringItem
		if err := json.Unmarshal(elem, &it); err != nil {
			appLog.Error("project: skipping malformed item", err, "index", i)
			continue
		}
		if it.ID == "" && it.Name == "" {
			appLog.Warn("project: skipping empty item", "index", i)
			continue
		}
		out = append(out, it)
	}
	return out
}

const maxEnvelopeDepth = 3

func collection(raw []byte, depth int) ([]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || depth > maxEnvelopeDepth {
		return nil, false
	}

	switch raw[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil, false
		}
		return elems, true
	case '{':
		var env map[string]json.RawMessage
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, false
		}
		for _, key := range envelopeKeys {
			if inner, ok := env[key]; ok {
				return collection(inner, depth+1)
			}
		}
		return nil, false
	default:
		return nil, false
	}
}
