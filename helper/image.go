package helper

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"SECUREATTEND/models"
)

var dataURLHeader = regexp.MustCompile(`^data:image/[^;]+;base64,`)

// DecodeImage turns a base64 string, optionally prefixed with a data URL header, into raw bytes.
func DecodeImage(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("image is required: %w", models.ErrInvalidInput)
	}
	s = dataURLHeader.ReplaceAllString(s, "")

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode image: %v: %w", err, models.ErrInvalidInput)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image is empty: %w", models.ErrInvalidInput)
	}
	return data, nil
}
