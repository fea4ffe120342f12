package reclaim

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/llabusch93/reclaim-sdk/pkg/utils"
)

// Time is an instant as the API transports it: UTC, ISO-8601, literal "Z".
type Time struct {
	time.Time
}

// NewTime wraps t. The zero time yields nil so the field is left out.
func NewTime(t time.Time) *Time {
	if t.IsZero() {
		return nil
	}
	return &Time{Time: t.UTC()}
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(utils.FormatTime(t.Time))
}

func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}

	parsed, err := utils.ParseTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// value returns the wrapped instant, the zero time for nil.
func (t *Time) value() time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.Time
}
