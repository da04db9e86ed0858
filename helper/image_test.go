package helper

import (
	"encoding/base64"
	"testing"

	"SECUREATTEND/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeImage(t *testing.T) {
	raw := []byte("\x89PNG fake image bytes")
	enc := base64.StdEncoding.EncodeToString(raw)

	for _, in := range []string{enc, "data:image/png;base64," + enc, "data:image/jpeg;base64," + enc, "  " + enc + "\n"} {
		got, err := DecodeImage(in)
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	}
}

func TestDecodeImage_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "not base64 !!", "data:image/png;base64,"} {
		_, err := DecodeImage(in)
		assert.ErrorIs(t, err, models.ErrInvalidInput, in)
	}
}
