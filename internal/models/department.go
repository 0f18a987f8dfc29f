package models

import "time"

// Department represents a volunteer department.
type Department struct {
	ID                 string    `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	Description        string    `db:"description" json:"description"`
	SolicitsVolunteers bool      `db:"solicits_volunteers" json:"solicits_volunteers"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}
