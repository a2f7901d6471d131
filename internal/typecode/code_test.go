package typecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode_StringRoundTrip(t *testing.T) {
	for c := Object; c <= LocalDateTime; c++ {
		parsed, ok := Parse(c.String())
		assert.True(t, ok, c.String())
		assert.Equal(t, c, parsed)
	}

	assert.Equal(t, "unknown", Code(-1).String())
	assert.Equal(t, Object, Code(0), "the zero code is an untyped object")
	_, ok := Parse("nope")
	assert.False(t, ok)
}

func TestCode_Classification(t *testing.T) {
	assert.True(t, Int.IsPrimitive())
	assert.False(t, IntObj.IsPrimitive())
	assert.True(t, IntObj.IsInteger())
	assert.True(t, BigDecimal.IsNumeric())
	assert.False(t, String.IsNumeric())
	assert.True(t, Date.IsTemporal())
	assert.True(t, Map.IsContainer())
	assert.Equal(t, LongObj, Long.Boxed())
	assert.Equal(t, Long, LongObj.Unboxed())
	assert.Equal(t, String, String.Boxed())
}
