package models

import "time"

// AttendanceEntry is one observed presence.
type AttendanceEntry struct {
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}
