package checkout

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// CheckInRecord is a read-only snapshot of one active check-in as served by
// the facility backend.
type CheckInRecord struct {
	ID               int64     `json:"id"`
	Representative   string    `json:"representativeName"`
	DisplayName      string    `json:"displayName,omitempty"`
	PhoneNumber      string    `json:"phoneNumber,omitempty"`
	ServiceName      string    `json:"serviceName"`
	CheckInTime      Timestamp `json:"checkInTime"`
	AdditionalGuests GuestList `json:"additionalGuests"`
}

// Timestamp is a check-in time as the backend sends it. The backend is not
// consistent about the layout, so RFC 3339, zone-less SQL datetimes and epoch
// milliseconds are all read. Anything else keeps its raw text and a zero Time.
type Timestamp struct {
	time.Time
	raw string
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*t = Timestamp{}
		return nil
	}

	if !strings.HasPrefix(trimmed, `"`) {
		var ms int64
		if err := json.Unmarshal(data, &ms); err != nil {
			return fmt.Errorf("checkInTime: %w", err)
		}
		*t = Timestamp{Time: time.UnixMilli(ms).UTC()}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("checkInTime: %w", err)
	}
	*t = Timestamp{raw: s}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = parsed
			t.raw = ""
			break
		}
	}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	switch {
	case !t.IsZero():
		return json.Marshal(t.Time.Format(time.RFC3339Nano))
	case t.raw != "":
		return json.Marshal(t.raw)
	default:
		return []byte("null"), nil
	}
}

// String returns the raw text when the layout was not recognised.
func (t Timestamp) String() string {
	if t.IsZero() {
		return t.raw
	}
	return t.Time.String()
}

// GuestList holds accompanying guest names. Older records store them as a
// single comma-joined string, so both encodings are accepted on input.
type GuestList []string

func (g *GuestList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*g = nil
		return nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		var joined string
		if err := json.Unmarshal(data, &joined); err != nil {
			return fmt.Errorf("additionalGuests: %w", err)
		}
		*g = SplitGuests(joined)
		return nil
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("additionalGuests: %w", err)
	}
	*g = compact(names)
	return nil
}

// SplitGuests splits a comma-joined guest string, trimming names and
// dropping empty entries.
func SplitGuests(joined string) GuestList {
	return compact(strings.Split(joined, ","))
}

func compact(names []string) GuestList {
	out := make(GuestList, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
