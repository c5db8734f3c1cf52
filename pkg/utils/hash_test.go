package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	a := Fingerprint("The Act of 1890 established the agency.")
	assert.Len(t, a, 64)
	assert.Equal(t, a, Fingerprint("The Act of 1890 established the agency."))
	assert.NotEqual(t, a, Fingerprint("The Act of 1891 established the agency."))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("  short  ", 10))
	assert.Equal(t, "abc...", Preview("abcdef", 3))
	assert.Equal(t, "é€...", Preview("é€x", 2))
}
