package csvimport

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ServerRowError is one per-row outcome reported by the backend. Index is
// the spreadsheet row number, see ServerIndexOffset.
type ServerRowError struct {
	Index     int            `json:"index"`
	ErrorCode string         `json:"errorCode"`
	Details   map[string]any `json:"details,omitempty"`
}

type ImportResponse struct {
	SuccessCount int              `json:"successCount"`
	ErrorCount   int              `json:"errorCount"`
	Errors       []ServerRowError `json:"errors"`
}

type codeInfo struct {
	field   string
	message string
}

var errorCodes = map[string]codeInfo{
	"RESIDENT_IMPORT_DUPLICATE_PHONE":        {"phone", "Số điện thoại đã tồn tại trong hệ thống"},
	"RESIDENT_IMPORT_DUPLICATE_EMAIL":        {"email", "Email đã tồn tại trong hệ thống"},
	"RESIDENT_IMPORT_DUPLICATE_CITIZEN_ID":   {"citizenId", "Số CCCD đã tồn tại trong hệ thống"},
	"RESIDENT_IMPORT_DUPLICATE_IN_FILE":      {"", "Trùng với một dòng khác trong tệp"},
	"RESIDENT_IMPORT_INVALID_EMAIL":          {"email", "Email không hợp lệ"},
	"RESIDENT_IMPORT_INVALID_PHONE":          {"phone", "Số điện thoại không hợp lệ"},
	"RESIDENT_IMPORT_INVALID_CITIZEN_ID":     {"citizenId", "Số CCCD không hợp lệ"},
	"RESIDENT_IMPORT_INVALID_DATE":           {"dateOfBirth", "Ngày sinh không hợp lệ"},
	"RESIDENT_IMPORT_MISSING_REQUIRED_FIELD": {"", "Thiếu thông tin bắt buộc"},
	"RESIDENT_IMPORT_ROOM_NOT_FOUND":         {"room", "Không tìm thấy phòng"},
	"RESIDENT_IMPORT_SAVE_FAILED":            {"", "Không thể lưu cư dân"},
	"STAFF_IMPORT_DUPLICATE_PHONE":           {"phone", "Số điện thoại đã tồn tại trong hệ thống"},
	"STAFF_IMPORT_DUPLICATE_EMAIL":           {"email", "Email đã tồn tại trong hệ thống"},
	"STAFF_IMPORT_DUPLICATE_IN_FILE":         {"", "Trùng với một dòng khác trong tệp"},
	"STAFF_IMPORT_INVALID_EMAIL":             {"email", "Email không hợp lệ"},
	"STAFF_IMPORT_INVALID_PHONE":             {"phone", "Số điện thoại không hợp lệ"},
	"STAFF_IMPORT_INVALID_DATE":              {"startDate", "Ngày vào làm không hợp lệ"},
	"STAFF_IMPORT_MISSING_REQUIRED_FIELD":    {"", "Thiếu thông tin bắt buộc"},
	"STAFF_IMPORT_SAVE_FAILED":               {"", "Không thể lưu nhân viên"},
}

// DescribeServerError turns a server error code into a display message and
// the field it concerns. Unknown codes fall back to "code: detail".
func DescribeServerError(e ServerRowError) (field, message string) {
	detail := describeDetails(e.Details)
	info, ok := errorCodes[e.ErrorCode]
	if !ok {
		if detail == "" {
			return "", e.ErrorCode
		}
		return "", fmt.Sprintf("%s: %s", e.ErrorCode, detail)
	}
	if detail == "" {
		return info.field, info.message
	}
	return info.field, fmt.Sprintf("%s (%s)", info.message, detail)
}

func describeDetails(details map[string]any) string {
	if len(details) == 0 {
		return ""
	}
	for _, key := range []string{"value", "message", "field"} {
		if v, ok := details[key]; ok {
			return strings.TrimSpace(fmt.Sprint(v))
		}
	}

	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		raw, err := json.Marshal(details[k])
		if err != nil {
			continue
		}
		parts = append(parts, k+"="+strings.Trim(string(raw), `"`))
	}
	return strings.Join(parts, ", ")
}
