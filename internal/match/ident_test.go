package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWords(t *testing.T) {
	tests := map[string][]string{
		"OrderID":         {"Order", "ID"},
		"customerName":    {"customer", "Name"},
		"XMLParser":       {"XML", "Parser"},
		"getHTTPResponse": {"get", "HTTP", "Response"},
		"order_id":        {"order", "id"},
		"ALLCAPS":         {"ALLCAPS"},
		"AbC":             {"Ab", "C"},
		"ABcD":            {"A", "Bc", "D"},
		"parseURL":        {"parse", "URL"},
		"__x--y ":         {"x", "y"},
		"":                nil,
	}

	for in, want := range tests {
		assert.Equal(t, want, Words(in), in)
	}
}

func TestNormalizeIdent(t *testing.T) {
	for _, in := range []string{"OrderID", "order_id", "order-id", "orderId", "ORDERID", "Order_ID"} {
		assert.Equal(t, "orderid", NormalizeIdent(in), in)
	}

	assert.Equal(t, "", NormalizeIdent(""))
	assert.Equal(t, "orderitemid", NormalizeIdent("order_item-ID"))
}

func TestNormalizeIdentWithSuffixStrip(t *testing.T) {
	tests := map[string]string{
		"CustomerID":       "customer",
		"customerIds":      "customer",
		"CreatedAt":        "created",
		"CreatedUTC":       "created",
		"CreatedTimestamp": "created",
		"ID":               "id",
		"At":               "at",
		"TotalCents":       "totalcents",
	}

	for in, want := range tests {
		assert.Equal(t, want, NormalizeIdentWithSuffixStrip(in), in)
	}
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"LineItem":   "line_item",
		"OrderID":    "order_id",
		"shipTo":     "ship_to",
		"XMLPayload": "xml_payload",
		"CreatedAt":  "created_at",
		"already_ok": "already_ok",
		"":           "",
	}

	for in, want := range tests {
		assert.Equal(t, want, SnakeCase(in), in)
	}
}
