// Package directive reads and writes YAML mapping directives and moves
// them in and out of the mapping infos of a meta.Repository.
//
// Directives are the raw mapping: table and column names, keys, indexes
// and strategy aliases as a user would write them. They may be partial.
// Whatever is left out is filled in from the mapping defaults when the
// repository resolves in Fill or Adapt mode; in Strict mode they must be
// complete.
//
// # Format
//
//	version: "1"
//	classes:
//	  - class: shop.Order
//	    table: ORDER1
//	    version:
//	      columns: VERSN
//	    fields:
//	      - field: OID
//	        value:
//	          columns: OID
//	      - field: Customer
//	        value:
//	          columns: [CUSTOMER_ID]
//	          foreign-key: {delete: cascade}
//	      - field: Items
//	        table: ORDER1_ITEMS
//	        columns: OID
//	        element:
//	          columns: ITEMS_ID
//	      - field: Address
//	        value:
//	          columns: ADDRESS_NULL
//	          embedded:
//	            - field: Street
//	              value:
//	                columns: {name: STREET, size: 80}
//
// A bare scalar stands for a column name where a column is expected, for a
// one-column list where a list is expected, and for a name where an index
// or unique constraint is expected. Field-level columns join the field's
// table back to the class table; value-level columns hold the value.
//
// Export is the inverse of Apply for synced infos: a repository resolved
// in Adapt mode, synced and exported resolves to the same schema when the
// directives are applied to a fresh model and resolved in Strict mode.
package directive
