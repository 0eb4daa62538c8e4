package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocIDSanitizesSlashes(t *testing.T) {
	assert.Equal(t, "W04.23.0123_I", docID("W04.23.0123/I"))
	assert.Equal(t, "W01.24.0001", docID("W01.24.0001"))
}
