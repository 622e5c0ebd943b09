package ldcontext

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/launchflag/ffcore/ldvalue"
)

func TestNewSingleKindContextDefaults(t *testing.T) {
	c := New("user-1")
	assert.Equal(t, DefaultKind, c.Kind())
	assert.Equal(t, "user-1", c.Key())
	assert.False(t, c.IsMulti())
	assert.True(t, c.IsValid())
	assert.Equal(t, "user-1", c.FullyQualifiedKey())
}

func TestNewWithKindUsesExplicitKind(t *testing.T) {
	c := NewWithKind(Kind("org"), "org-1")
	assert.Equal(t, Kind("org"), c.Kind())
	assert.Equal(t, "org:org-1", c.FullyQualifiedKey())
}

func TestNewMultiWithOneContextDegradesToSingle(t *testing.T) {
	c := NewMulti(New("user-1"))
	assert.False(t, c.IsMulti())
	assert.Equal(t, "user-1", c.Key())
}

func TestNewMultiCombinesSeveralKinds(t *testing.T) {
	c := NewMulti(New("user-1"), NewWithKind(Kind("org"), "org-1"))
	assert.True(t, c.IsMulti())
	assert.Equal(t, 2, c.IndividualContextCount())

	sub, ok := c.ContextByKind(Kind("org"))
	assert.True(t, ok)
	assert.Equal(t, "org-1", sub.Key())

	_, ok = c.ContextByKind(Kind("device"))
	assert.False(t, ok)
}

func TestMultiContextFullyQualifiedKeyIsSortedAndDeterministic(t *testing.T) {
	a := NewMulti(New("user-1"), NewWithKind(Kind("org"), "org-1"))
	b := NewMulti(NewWithKind(Kind("org"), "org-1"), New("user-1"))
	assert.Equal(t, a.FullyQualifiedKey(), b.FullyQualifiedKey())
	assert.Equal(t, "multi:org:org-1:user:user-1", a.FullyQualifiedKey())
}

func TestWithAttributeAndGetValue(t *testing.T) {
	c := New("user-1").WithAttribute("email", ldvalue.String("a@example.com"))
	assert.Equal(t, ldvalue.String("a@example.com"), c.GetValue(NewRef("email")))
	assert.Equal(t, ldvalue.String("user-1"), c.GetValue(NewRef("key")))
	assert.Equal(t, ldvalue.String(string(DefaultKind)), c.GetValue(NewRef("kind")))
}

func TestGetValueUnknownAttributeIsNull(t *testing.T) {
	c := New("user-1")
	assert.Equal(t, ldvalue.Null(), c.GetValue(NewRef("missing")))
}

func TestWithPrivateMarksAttributePrivate(t *testing.T) {
	c := New("user-1").WithPrivate("email")
	assert.True(t, c.IsAttributePrivate("email"))
	assert.False(t, c.IsAttributePrivate("name"))
}

func TestIsValidRejectsEmptyKeyOrEmptyMulti(t *testing.T) {
	assert.False(t, New("").IsValid())
	assert.False(t, Context{kind: MultiKind}.IsValid())
}

func TestIndividualContextByIndex(t *testing.T) {
	c := New("user-1")
	sub, ok := c.IndividualContextByIndex(0)
	assert.True(t, ok)
	assert.Equal(t, "user-1", sub.Key())

	_, ok = c.IndividualContextByIndex(1)
	assert.False(t, ok)
}
