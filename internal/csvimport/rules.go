package csvimport

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailPattern      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern      = regexp.MustCompile(`^(0|\+84)\d{9,10}$`)
	nationalIDPattern = regexp.MustCompile(`^\d{12}$`)
)

var phoneNoise = strings.NewReplacer(" ", "", ".", "")

// NormalizePhone drops the spaces and dots people type into phone numbers.
func NormalizePhone(phone string) string {
	return phoneNoise.Replace(strings.TrimSpace(phone))
}

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(NormalizePhone(phone))
}

func IsValidNationalID(id string) bool {
	return nationalIDPattern.MatchString(strings.TrimSpace(id))
}

type formatRule struct {
	key     string
	kinds   []Kind
	valid   func(string) bool
	message string
}

var formatRules = []formatRule{
	{key: "email", valid: IsValidEmail, message: "email không hợp lệ"},
	{key: "phone", valid: IsValidPhone, message: "số điện thoại không hợp lệ"},
	{key: "citizenId", kinds: []Kind{KindResident}, valid: IsValidNationalID, message: "số CCCD phải gồm đúng 12 chữ số"},
}

func (r formatRule) appliesTo(k Kind) bool {
	if len(r.kinds) == 0 {
		return true
	}
	for _, kind := range r.kinds {
		if kind == k {
			return true
		}
	}
	return false
}

// RowLabel names a row for humans: its name field when filled, otherwise its
// 1-based position.
func RowLabel(k Kind, index int, row CsvRow) string {
	if name := strings.TrimSpace(row[k.NameKey()]); name != "" {
		return name
	}
	return fmt.Sprintf("Dòng %d", index+1)
}

// ValidateRow returns every rule violation of row. It never fails fast.
func ValidateRow(k Kind, index int, row CsvRow) []ValidationError {
	var errs []ValidationError
	label := RowLabel(k, index, row)

	for _, c := range Columns(k) {
		if !c.Required {
			continue
		}
		if strings.TrimSpace(row[c.Key]) == "" {
			errs = append(errs, ValidationError{
				RowIndex: index,
				Field:    c.Key,
				Message:  fmt.Sprintf("%s: thiếu %s", label, c.Label),
				Source:   SourceLocal,
			})
		}
	}

	for _, rule := range formatRules {
		if !rule.appliesTo(k) {
			continue
		}
		value := strings.TrimSpace(row[rule.key])
		if value == "" || rule.valid(value) {
			continue
		}
		errs = append(errs, ValidationError{
			RowIndex: index,
			Field:    rule.key,
			Message:  fmt.Sprintf("%s: %s (%s)", label, rule.message, value),
			Source:   SourceLocal,
		})
	}
	return errs
}
