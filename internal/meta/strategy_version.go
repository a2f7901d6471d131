package meta

import (
	"relmap/internal/schema"
	"relmap/internal/typecode"
)

// columnVersionStrategy keeps the version in a column of the class table:
// a counter for number, a modification time for timestamp.
type columnVersionStrategy struct {
	v     *Version
	alias string
}

func (s *columnVersionStrategy) Alias() string { return s.alias }

func (s *columnVersionStrategy) Map(mode Mode) error {
	v := s.v

	code := typecode.Int
	if s.alias == VersionTimestamp {
		code = typecode.Date
	}

	if vf := v.cls.VersionField(); vf != nil {
		code = vf.Code
	}

	tmpl := &schema.Column{JavaType: code, NotNull: true, NotNullExplicit: true}

	cols, err := v.info.GetColumns(v, []*schema.Column{tmpl}, mode)
	if err != nil {
		return err
	}

	v.columns = cols
	v.io = v.info.ColumnIO()

	v.index, err = v.info.GetIndex(v, cols, mode)

	return err
}

type noneVersionStrategy struct {
	v *Version
}

func (s *noneVersionStrategy) Alias() string { return VersionNone }

func (s *noneVersionStrategy) Map(mode Mode) error {
	s.v.columns = nil
	s.v.index = nil
	s.v.io = ColumnIO{}

	return s.v.info.AssertNoSchemaComponents(s.v, false)
}

// superclassVersionStrategy shares the version columns of the nearest
// superclass with storage.
type superclassVersionStrategy struct {
	v *Version
}

func (s *superclassVersionStrategy) Alias() string { return VersionSuperclass }

func (s *superclassVersionStrategy) Map(mode Mode) error {
	v := s.v

	if err := v.info.AssertNoSchemaComponents(v, !mode.Adapt()); err != nil {
		return err
	}

	if v.cls.IsEmbedded() {
		return nil
	}

	sup := v.cls.JoinableSuperclass()
	if sup == nil {
		return metaErr(v, "version-no-super", "class has no superclass to take the version from")
	}

	if err := v.Repository().Installer().InstallVersion(sup.version); err != nil {
		return err
	}

	v.columns = sup.version.columns
	v.io = sup.version.io
	v.index = nil

	return nil
}
