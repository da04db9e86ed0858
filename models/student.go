package models

import "time"

// Student is the roster record attached to an enrolled identity. Name is the join key
// with the identity store and the attendance ledger.
type Student struct {
	RegNo   string    `json:"reg_no" yaml:"reg_no"`
	Name    string    `json:"name" yaml:"name"`
	Course  string    `json:"course" yaml:"course"`
	AddedAt time.Time `json:"added_at" yaml:"added_at"`
}
