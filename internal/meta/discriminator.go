package meta

import (
	"slices"

	"relmap/internal/schema"
)

// DiscriminatorNull is the discriminator value stored as SQL NULL.
var DiscriminatorNull = schema.Null

// Discriminator tells the classes of a hierarchy apart within shared tables.
type Discriminator struct {
	cls  *ClassMapping
	info *DiscriminatorMappingInfo

	value   any
	columns []*schema.Column
	io      ColumnIO
	index   *schema.Index

	strategy DiscriminatorStrategy
	state    resolveState
}

// Repository implements Context.
func (d *Discriminator) Repository() *Repository {
	return d.cls.Repository()
}

func (d *Discriminator) String() string {
	return d.cls.String() + "<discriminator>"
}

// ClassMapping returns the owning class.
func (d *Discriminator) ClassMapping() *ClassMapping {
	return d.cls
}

// Info returns the raw discriminator mapping info.
func (d *Discriminator) Info() *DiscriminatorMappingInfo {
	return d.info
}

// Value returns the resolved discriminator value, or nil.
func (d *Discriminator) Value() any {
	return d.value
}

// SetValue sets the discriminator value.
func (d *Discriminator) SetValue(v any) {
	d.value = v
}

// Columns returns the discriminator columns.
func (d *Discriminator) Columns() []*schema.Column {
	return slices.Clone(d.columns)
}

// SetColumns sets the discriminator columns.
func (d *Discriminator) SetColumns(cols []*schema.Column) {
	d.columns = slices.Clone(cols)
}

// ColumnIO returns the writability of the discriminator columns.
func (d *Discriminator) ColumnIO() ColumnIO {
	return d.io
}

// Index returns the index over the discriminator columns, or nil.
func (d *Discriminator) Index() *schema.Index {
	return d.index
}

// Strategy returns the installed strategy, or nil.
func (d *Discriminator) Strategy() DiscriminatorStrategy {
	return d.strategy
}

// SetStrategy installs s and maps it, restoring the previous strategy on
// failure.
func (d *Discriminator) SetStrategy(s DiscriminatorStrategy, mode Mode) error {
	orig := d.strategy
	d.strategy = s

	if err := s.Map(mode); err != nil {
		d.strategy = orig
		return err
	}

	return nil
}

// IsResolved reports whether the strategy is installed.
func (d *Discriminator) IsResolved() bool {
	return d.state == resolved
}
