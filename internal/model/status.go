package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the derived state of an instance. It is never stored: it is
// recomputed from the instance and the current time on every query.
type Status uint8

const (
	StatusActive Status = iota
	StatusCompleted
	StatusSkipped
	StatusOverdue
	StatusPending

	// NumStatuses sizes tables indexed by Status.
	NumStatuses
)

var statusNames = [...]string{
	StatusActive:    "active",
	StatusCompleted: "completed",
	StatusSkipped:   "skipped",
	StatusOverdue:   "overdue",
	StatusPending:   "pending",
}

// Fails to compile when a Status is added without a name.
var _ [len(statusNames) - int(NumStatuses)]struct{}

// Statuses lists every status in declaration order.
func Statuses() []Status {
	out := make([]Status, 0, NumStatuses)
	for s := Status(0); s < NumStatuses; s++ {
		out = append(out, s)
	}
	return out
}

func (s Status) String() string {
	if s < NumStatuses {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// ParseStatus resolves a status name case-insensitively.
func ParseStatus(name string) (Status, bool) {
	name = strings.TrimSpace(name)
	for s, n := range statusNames {
		if strings.EqualFold(name, n) {
			return Status(s), true
		}
	}
	return StatusActive, false
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	parsed, ok := ParseStatus(name)
	if !ok {
		return fmt.Errorf("unknown status %q", name)
	}
	*s = parsed
	return nil
}

// Style is the visual treatment a status maps to.
type Style struct {
	Color string `json:"color"`
	// ColorName is the CSS3 color name closest to Color.
	ColorName   string `json:"color_name"`
	Background  string `json:"background_color"`
	Border      string `json:"border_color"`
	Text        string `json:"text_color"`
	ClassName   string `json:"class_name"`
	Strikeout   bool   `json:"strikeout,omitempty"`
	Translucent bool   `json:"translucent,omitempty"`
}
