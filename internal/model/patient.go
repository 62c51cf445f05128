package model

type PatientStatus string

const (
	PatientStatusActive   PatientStatus = "active"
	PatientStatusInactive PatientStatus = "inactive"
)

type Patient struct {
	Base
	Name   string        `db:"name" json:"name"`
	Email  string        `db:"email" json:"email"`
	Phone  string        `db:"phone" json:"phone,omitempty"`
	Status PatientStatus `db:"status" json:"status"`
}
