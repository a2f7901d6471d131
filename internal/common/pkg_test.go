package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitQualified(t *testing.T) {
	tests := []struct {
		in, qual, local string
	}{
		{"ORDERS", "", "ORDERS"},
		{"SALES.ORDERS", "SALES", "ORDERS"},
		{"db.SALES.ORDERS", "db.SALES", "ORDERS"},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			q, l := SplitQualified(tt.in)
			assert.Equal(t, tt.qual, q)
			assert.Equal(t, tt.local, l)
		})
	}
}

func TestQualifyAndUnqualified(t *testing.T) {
	assert.Equal(t, "shop.Order", Qualify("shop", "Order"))
	assert.Equal(t, "Order", Qualify("", "Order"))
	assert.Equal(t, "Order", UnqualifiedName("relmap/examples/shop.Order"))
}
