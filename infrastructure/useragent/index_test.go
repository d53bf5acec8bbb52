package useragent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUserAgent(t *testing.T) {
	ua := ParseUserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	assert.Equal(t, "Chrome", ua.Name)
	assert.Equal(t, "Windows", ua.OS)
	assert.False(t, ua.Bot)

	label := ua.Describe()
	require.NotNil(t, label)
	assert.Equal(t, "Chrome on Windows", *label)
}

func TestDescribeEmpty(t *testing.T) {
	assert.Nil(t, ParseUserAgent("").Describe())
}
