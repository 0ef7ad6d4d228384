package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/sandevgo/kurt/internal/core"
)

// decodeJSON unmarshals raw strictly, then once more after repair.
// Models occasionally wrap the object in fences or leave a trailing comma.
// Anything but a JSON object is rejected.
func decodeJSON(raw string, v any) error {
	text := strings.TrimSpace(raw)
	if text == "" {
		return &core.OracleParseError{Raw: raw, Err: fmt.Errorf("empty response")}
	}

	strictErr := decodeObject(text, v)
	if strictErr == nil {
		return nil
	}

	repaired, err := jsonrepair.JSONRepair(stripFences(text))
	if err != nil {
		return &core.OracleParseError{Raw: raw, Err: strictErr}
	}
	if err := decodeObject(repaired, v); err != nil {
		return &core.OracleParseError{Raw: raw, Err: err}
	}
	return nil
}

func decodeObject(text string, v any) error {
	if !strings.HasPrefix(strings.TrimSpace(text), "{") {
		return errNotObject
	}
	return json.Unmarshal([]byte(text), v)
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}

var errNotObject = errors.New("response is not a JSON object")

type rawDecision struct {
	TypeOfAction string `json:"type_of_action"`
}

// rawDraft accepts priority as a number or a numeric string.
type rawDraft struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Priority    json.Number `json:"priority"`
	AssigneeID  string      `json:"assigneeId"`
	DueDate     string      `json:"dueDate"`
}

// parsePriority accepts whole numbers, including float spellings like 2.0.
// Magnitudes beyond int32 are clamped; the caller treats them as out of range.
func parsePriority(n json.Number) (int64, error) {
	if p, err := n.Int64(); err == nil {
		return p, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("priority %s is not a whole number", n)
	}
	return int64(max(min(f, math.MaxInt32), math.MinInt32)), nil
}
