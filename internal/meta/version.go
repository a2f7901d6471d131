package meta

import (
	"slices"

	"relmap/internal/schema"
)

// Version is the optimistic version indicator of a class.
type Version struct {
	cls  *ClassMapping
	info *VersionMappingInfo

	columns []*schema.Column
	io      ColumnIO
	index   *schema.Index

	strategy VersionStrategy
	state    resolveState
}

// Repository implements Context.
func (v *Version) Repository() *Repository {
	return v.cls.Repository()
}

func (v *Version) String() string {
	return v.cls.String() + "<version>"
}

// ClassMapping returns the owning class.
func (v *Version) ClassMapping() *ClassMapping {
	return v.cls
}

// Info returns the raw version mapping info.
func (v *Version) Info() *VersionMappingInfo {
	return v.info
}

// Columns returns the version columns.
func (v *Version) Columns() []*schema.Column {
	return slices.Clone(v.columns)
}

// SetColumns sets the version columns.
func (v *Version) SetColumns(cols []*schema.Column) {
	v.columns = slices.Clone(cols)
}

// ColumnIO returns the writability of the version columns.
func (v *Version) ColumnIO() ColumnIO {
	return v.io
}

// Index returns the index over the version columns, or nil.
func (v *Version) Index() *schema.Index {
	return v.index
}

// Strategy returns the installed strategy, or nil.
func (v *Version) Strategy() VersionStrategy {
	return v.strategy
}

// SetStrategy installs s and maps it, restoring the previous strategy on
// failure.
func (v *Version) SetStrategy(s VersionStrategy, mode Mode) error {
	orig := v.strategy
	v.strategy = s

	if err := s.Map(mode); err != nil {
		v.strategy = orig
		return err
	}

	return nil
}

// IsResolved reports whether the strategy is installed.
func (v *Version) IsResolved() bool {
	return v.state == resolved
}
