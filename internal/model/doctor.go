package model

import (
	"time"
)

type Doctor struct {
	Base
	Name                string  `db:"name" json:"name"`
	Email               string  `db:"email" json:"email"`
	Specialty           string  `db:"specialty" json:"specialty"`
	ConsultationMinutes int     `db:"consultation_minutes" json:"consultation_minutes"`
	BufferMinutes       int     `db:"buffer_minutes" json:"buffer_minutes"`
	ConsultationPrice   float64 `db:"consultation_price" json:"consultation_price"`
	Active              bool    `db:"active" json:"active"`
}

// ConsultationDuration is the fixed length of one consultation.
func (d *Doctor) ConsultationDuration() time.Duration {
	return time.Duration(d.ConsultationMinutes) * time.Minute
}

// SlotStep is the distance between consecutive slot starts:
// consultation length plus the interval the doctor keeps between patients.
func (d *Doctor) SlotStep() time.Duration {
	return time.Duration(d.ConsultationMinutes+d.BufferMinutes) * time.Minute
}
