package csvimport

import "slices"

// Kind selects the record schema for one import session.
type Kind string

const (
	KindResident Kind = "resident"
	KindStaff    Kind = "staff"
)

func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindResident, KindStaff:
		return Kind(s), true
	default:
		return "", false
	}
}

// PluralKey is the property name the backend expects the rows under.
func (k Kind) PluralKey() string {
	if k == KindStaff {
		return "staff"
	}
	return "residents"
}

// NameKey is the field used to label a row in error messages.
func (k Kind) NameKey() string {
	if k == KindStaff {
		return "staffName"
	}
	return "fullName"
}

type ColumnConfig struct {
	Key      string   `json:"key" yaml:"key"`
	Label    string   `json:"label" yaml:"label"`
	Required bool     `json:"required" yaml:"required"`
	Aliases  []string `json:"aliases" yaml:"aliases"`
}

var phoneAliases = []string{"SĐT", "Điện thoại", "Phone", "Phone number", "phoneNumber", "Mobile"}

var residentColumns = []ColumnConfig{
	{Key: "fullName", Label: "Họ và tên", Required: true,
		Aliases: []string{"Họ tên", "Tên cư dân", "Tên", "Name", "Full name", "Resident name"}},
	{Key: "phone", Label: "Số điện thoại", Required: true, Aliases: phoneAliases},
	{Key: "email", Label: "Email", Aliases: []string{"E-mail", "Mail", "Thư điện tử"}},
	{Key: "room", Label: "Phòng", Required: true,
		Aliases: []string{"Số phòng", "Căn hộ", "Mã căn hộ", "Apartment", "Unit", "roomNumber"}},
	{Key: "citizenId", Label: "Số CCCD",
		Aliases: []string{"CCCD", "CMND", "Căn cước công dân", "Citizen ID", "National ID", "idNumber"}},
	{Key: "dateOfBirth", Label: "Ngày sinh", Aliases: []string{"DOB", "Birthday", "Date of birth"}},
	{Key: "gender", Label: "Giới tính", Aliases: []string{"Gender", "Sex"}},
	{Key: "building", Label: "Tòa nhà", Aliases: []string{"Tòa", "Block", "Building"}},
}

var staffColumns = []ColumnConfig{
	{Key: "staffName", Label: "Tên nhân viên", Required: true,
		Aliases: []string{"Họ và tên", "Họ tên", "Tên", "Name", "Full name", "fullName", "Staff name"}},
	{Key: "phone", Label: "Số điện thoại", Required: true, Aliases: phoneAliases},
	{Key: "email", Label: "Email", Required: true, Aliases: []string{"E-mail", "Mail", "Thư điện tử"}},
	{Key: "position", Label: "Chức vụ", Aliases: []string{"Vị trí", "Position", "Title", "Role"}},
	{Key: "department", Label: "Bộ phận", Aliases: []string{"Phòng ban", "Department"}},
	{Key: "startDate", Label: "Ngày vào làm", Aliases: []string{"Ngày bắt đầu", "Start date"}},
}

// Columns returns a copy of the ordered schema for k.
func Columns(k Kind) []ColumnConfig {
	if k == KindStaff {
		return slices.Clone(staffColumns)
	}
	return slices.Clone(residentColumns)
}

// RequiredLabels lists the labels of the required columns, in schema order.
func RequiredLabels(k Kind) []string {
	var labels []string
	for _, c := range Columns(k) {
		if c.Required {
			labels = append(labels, c.Label)
		}
	}
	return labels
}

func labelFor(k Kind, key string) string {
	for _, c := range Columns(k) {
		if c.Key == key {
			return c.Label
		}
	}
	return key
}
