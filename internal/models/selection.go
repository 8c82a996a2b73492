package models

// PersistedSelection is the serialized form of a range selection shared by
// the link query and local storage. EndDate is inclusive.
type PersistedSelection struct {
	Range     string `json:"range" validate:"required"`
	StartDate string `json:"start_date,omitempty" validate:"required_if=Range custom,omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date,omitempty" validate:"required_if=Range custom,omitempty,datetime=2006-01-02"`
	TimeZone  string `json:"timezone,omitempty" validate:"omitempty,timezone"`
}

// IsEmpty reports whether nothing was carried.
func (p PersistedSelection) IsEmpty() bool {
	return p.Range == "" && p.StartDate == "" && p.EndDate == "" && p.TimeZone == ""
}
