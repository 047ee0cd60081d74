package sites

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_KnownHosts(t *testing.T) {
	tests := []struct {
		hostname    string
		category    string
		distraction bool
	}{
		{"youtube.com", "entertainment", true},
		{"reddit.com", "social", true},
		{"github.com", "work", false},
		{"arxiv.org", "educational", false},
	}
	for _, tc := range tests {
		p, ok := Lookup(tc.hostname)
		require.True(t, ok, "expected %s in the known-site table", tc.hostname)
		assert.Equal(t, tc.category, p.Category)
		assert.Equal(t, tc.distraction, p.IsDistraction)
	}
}

func TestLookup_ExactMatchOnly(t *testing.T) {
	_, ok := Lookup("www.youtube.com")
	assert.False(t, ok, "lookup expects the www prefix already stripped")

	_, ok = Lookup("music.youtube.com")
	assert.False(t, ok, "subdomains do not inherit profiles")

	_, ok = Lookup("example.com")
	assert.False(t, ok)
}
