package helper

import (
	"fmt"
	"time"

	"SECUREATTEND/models"
)

// DateLayout is the key format of an attendance date partition.
const DateLayout = "2006-01-02"

// DateKey returns the partition key of t in loc.
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateLayout)
}

// ParseDateKey validates a YYYY-MM-DD partition key and returns it normalized.
func ParseDateKey(s string) (string, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("date %q: %w", s, models.ErrInvalidInput)
	}
	return d.Format(DateLayout), nil
}
