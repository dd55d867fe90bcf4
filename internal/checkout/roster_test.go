package checkout

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuestList_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want GuestList
	}{
		{"array", `["Khách 1", " Khách 2 ", ""]`, GuestList{"Khách 1", "Khách 2"}},
		{"joined string", `"Khách 1, Khách 2"`, GuestList{"Khách 1", "Khách 2"}},
		{"trailing comma", `"Khách 1,, "`, GuestList{"Khách 1"}},
		{"empty string", `""`, GuestList{}},
		{"null", `null`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g GuestList
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &g))
			assert.Equal(t, tt.want, g)
		})
	}
}

func TestGuestList_RejectsOtherShapes(t *testing.T) {
	var g GuestList
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &g))
}

func TestBuildRoster_ScenarioD(t *testing.T) {
	var rec CheckInRecord
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 42,
		"representativeName": "Nguyen Van A",
		"serviceName": "Gym",
		"checkInTime": "2026-10-15T08:00:00Z",
		"additionalGuests": "Khách 1, Khách 2"
	}`), &rec))

	rows := BuildRoster(rec, "")

	assert.Equal(t, []GuestRow{
		{ID: RepresentativeID, Name: "Nguyen Van A", IsRepresentative: true},
		{ID: "0", Name: "Khách 1"},
		{ID: "1", Name: "Khách 2"},
	}, rows)
}

func TestBuildRoster_RepresentativeName(t *testing.T) {
	tests := []struct {
		name string
		rec  CheckInRecord
		want string
	}{
		{"display name wins", CheckInRecord{DisplayName: "Anh A", Representative: "Nguyen Van A"}, "Anh A"},
		{"representative", CheckInRecord{DisplayName: "  ", Representative: "Nguyen Van A"}, "Nguyen Van A"},
		{"placeholder", CheckInRecord{}, "Khách"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := BuildRoster(tt.rec, "Khách")
			require.NotEmpty(t, rows)
			assert.Equal(t, tt.want, rows[0].Name)
		})
	}
}

func TestBuildRoster_SingleRepresentativeFirst(t *testing.T) {
	recs := []CheckInRecord{
		{},
		{AdditionalGuests: GuestList{"a"}},
		{AdditionalGuests: GuestList{"", "b", " "}},
		{Representative: "x", AdditionalGuests: GuestList{"x", "y", "z"}},
	}
	for _, rec := range recs {
		rows := BuildRoster(rec, "")
		reps := 0
		for _, r := range rows {
			if r.IsRepresentative {
				reps++
			}
		}
		assert.Equal(t, 1, reps)
		assert.True(t, rows[0].IsRepresentative)
		assert.False(t, rows[0].Checked)
	}
}

func TestTimestamp_Layouts(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"rfc3339", `"2026-10-15T08:00:00Z"`, "2026-10-15 08:00:00"},
		{"sql datetime", `"2024-01-01 10:00:00"`, "2024-01-01 10:00:00"},
		{"no zone", `"2024-01-01T10:00:00"`, "2024-01-01 10:00:00"},
		{"date only", `"2024-01-01"`, "2024-01-01 00:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.in), &ts))
			assert.Equal(t, tt.want, ts.Format("2006-01-02 15:04:05"))
		})
	}
}

func TestTimestamp_EpochMillisAndNull(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`1704103200000`), &ts))
	assert.Equal(t, int64(1704103200000), ts.UnixMilli())

	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())
}

func TestCheckInRecord_UnknownTimeLayoutStillDecodes(t *testing.T) {
	var rec CheckInRecord
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 9,
		"representativeName": "Tran B",
		"checkInTime": "15/10/2026 08:00",
		"additionalGuests": []
	}`), &rec))

	assert.Equal(t, int64(9), rec.ID)
	assert.True(t, rec.CheckInTime.IsZero())
	assert.Equal(t, "15/10/2026 08:00", rec.CheckInTime.String())

	out, err := json.Marshal(rec.CheckInTime)
	require.NoError(t, err)
	assert.JSONEq(t, `"15/10/2026 08:00"`, string(out))
}

func TestTimestamp_RoundTrip(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2024-01-01 10:00:00"`), &ts))

	out, err := json.Marshal(ts)
	require.NoError(t, err)

	var back Timestamp
	require.NoError(t, json.Unmarshal(out, &back))
	assert.True(t, ts.Equal(back.Time))
}
