package ldcontext

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRefPlainAttributeName(t *testing.T) {
	r := NewRef("email")
	require.True(t, r.IsValid())
	assert.Equal(t, 1, r.Depth())
	assert.Equal(t, "email", r.Component(0))
}

func TestNewRefSlashPathWithEscaping(t *testing.T) {
	r := NewRef("/address/~1street~0name")
	require.True(t, r.IsValid())
	assert.Equal(t, 2, r.Depth())
	assert.Equal(t, "address", r.Component(0))
	assert.Equal(t, "/street~name", r.Component(1))
}

func TestNewRefEmptyStringIsInvalid(t *testing.T) {
	assert.False(t, NewRef("").IsValid())
}

func TestNewRefWithEmptyComponentIsInvalid(t *testing.T) {
	assert.False(t, NewRef("/a//b").IsValid())
}

func TestRefJSONRoundTrip(t *testing.T) {
	r := NewRef("/a/b")
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `"/a/b"`, string(data))

	var out Ref
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, r.String(), out.String())
	assert.Equal(t, r.Depth(), out.Depth())
}
