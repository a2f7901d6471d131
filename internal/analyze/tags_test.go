package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relmap/internal/diagnostic"
)

func TestParseTag(t *testing.T) {
	tests := []struct {
		tag  string
		want Options
	}{
		{"", Options{}},
		{"-", Options{Skip: true}},
		{"transient", Options{Skip: true}},
		{"id,auto", Options{ID: true, Auto: true}},
		{"mappedby=Order, ordered", Options{MappedBy: "Order", Ordered: true}},
		{"strategy=enum(ordinal)", Options{Strategy: "enum(ordinal)"}},
		{"strategy=map(a,b),lob", Options{Strategy: "map(a,b)", LOB: true}},
		{"column=CUST_NAME", Options{Column: "CUST_NAME"}},
		{"ID,Version", Options{ID: true, Version: true}},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := ParseTag(tt.tag, "shop.Order.X")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTag_Errors(t *testing.T) {
	_, err := ParseTag("id,orderd", "shop.Order.Lines")
	require.Error(t, err)
	assert.Equal(t, "bad-tag", diagnostic.CodeOf(err))

	var me *diagnostic.MetaError
	require.ErrorAs(t, err, &me)
	assert.Contains(t, me.Suggestions, "ordered")

	_, err = ParseTag("mappedby=", "shop.Order.Lines")
	assert.Error(t, err)

	_, err = ParseTag("auto", "shop.Order.Lines")
	assert.Error(t, err)
}
