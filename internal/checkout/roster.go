package checkout

import (
	"strconv"
	"strings"
)

// RepresentativeID identifies the representative row of every roster.
const RepresentativeID = "representative"

// DefaultRepresentativeName is shown when a record carries no name at all.
const DefaultRepresentativeName = "Khách đại diện"

type GuestRow struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Checked          bool   `json:"checked"`
	IsRepresentative bool   `json:"isRepresentative"`
}

// BuildRoster derives the selection rows of rec. The representative is
// always row 0 and starts unchecked; guests follow in record order with
// their position as id.
func BuildRoster(rec CheckInRecord, placeholder string) []GuestRow {
	if placeholder == "" {
		placeholder = DefaultRepresentativeName
	}

	name := strings.TrimSpace(rec.DisplayName)
	if name == "" {
		name = strings.TrimSpace(rec.Representative)
	}
	if name == "" {
		name = placeholder
	}

	rows := make([]GuestRow, 0, len(rec.AdditionalGuests)+1)
	rows = append(rows, GuestRow{ID: RepresentativeID, Name: name, IsRepresentative: true})
	for i, guest := range compact(rec.AdditionalGuests) {
		rows = append(rows, GuestRow{ID: strconv.Itoa(i), Name: guest})
	}
	return rows
}
