package domain

// Service 服务目录条目（对应 services 表，仅 name 一列）
// A service is identified by value: renaming substitutes the string in the
// catalog and deliberately does not touch bookings that reference the old
// name (no foreign key, no cascading rename).
type Service struct {
	Name string `json:"name"`
}

// DefaultServices is the static fallback catalog used when neither the
// local cache nor the remote store has a service list.
func DefaultServices() []Service {
	return []Service{
		{Name: "General Checkup"},
		{Name: "Teeth Cleaning"},
		{Name: "Whitening"},
		{Name: "Root Canal"},
		{Name: "Braces Consultation"},
		{Name: "Wisdom Tooth Removal"},
	}
}
