package ldmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSemVerFullVersion(t *testing.T) {
	v, ok := ParseSemVer("1.2.3")
	require.True(t, ok)
	assert.Equal(t, SemVer{Major: 1, Minor: 2, Patch: 3}, v)
}

func TestParseSemVerWithPreReleaseAndBuild(t *testing.T) {
	v, ok := ParseSemVer("1.2.3-beta.1+build.5")
	require.True(t, ok)
	assert.Equal(t, SemVer{Major: 1, Minor: 2, Patch: 3, PreRelease: "beta.1"}, v)
}

func TestParseSemVerTolerantOfMissingComponents(t *testing.T) {
	v, ok := ParseSemVer("2")
	require.True(t, ok)
	assert.Equal(t, SemVer{Major: 2}, v)
}

func TestParseSemVerRejectsInvalidInput(t *testing.T) {
	_, ok := ParseSemVer("")
	assert.False(t, ok)

	_, ok = ParseSemVer("not-a-version")
	assert.False(t, ok)

	_, ok = ParseSemVer("1.2.3.4")
	assert.False(t, ok)
}

func TestSemVerCompareNumericOrdering(t *testing.T) {
	v1, _ := ParseSemVer("1.0.0")
	v2, _ := ParseSemVer("1.2.0")
	assert.Equal(t, -1, v1.Compare(v2))
	assert.Equal(t, 1, v2.Compare(v1))
	assert.Equal(t, 0, v1.Compare(v1))
}

func TestSemVerComparePreReleaseIsLessThanRelease(t *testing.T) {
	release, _ := ParseSemVer("1.0.0")
	preRelease, _ := ParseSemVer("1.0.0-beta")
	assert.Equal(t, 1, release.Compare(preRelease))
	assert.Equal(t, -1, preRelease.Compare(release))
}
