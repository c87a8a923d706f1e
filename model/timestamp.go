package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// naive values carry no offset and are read as UTC
const naiveLayout = "2006-01-02T15:04:05"

// Timestamp is a point in time exchanged as an RFC 3339 string with whole
// second precision.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC().Truncate(time.Second)}
}

func Unix(sec int64) Timestamp {
	return Timestamp{time.Unix(sec, 0).UTC()}
}

func (t Timestamp) String() string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		var naiveErr error
		parsed, naiveErr = time.ParseInLocation(naiveLayout, s, time.UTC)
		if naiveErr != nil {
			return fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
	}
	*t = NewTimestamp(parsed)
	return nil
}
