package meta

import (
	"relmap/internal/schema"
	"relmap/internal/typecode"
)

// columnDiscriminatorStrategy stores a per-class value in a column of the
// hierarchy's base table. class-name stores the qualified class name,
// value-map the declared or default value.
type columnDiscriminatorStrategy struct {
	d     *Discriminator
	alias string
}

func (s *columnDiscriminatorStrategy) Alias() string { return s.alias }

func (s *columnDiscriminatorStrategy) Map(mode Mode) error {
	d := s.d

	var value any
	if s.alias == DiscriminatorClassName {
		value = d.cls.Name
	} else {
		value = d.info.GetValue(d, mode)
	}

	if value == nil && !d.cls.Abstract {
		warn(d, "discriminator-no-value", "no discriminator value is declared for a concrete class")
	}

	code := typecode.String
	switch value.(type) {
	case int:
		code = typecode.Int
	case float64:
		code = typecode.Double
	}

	tmpl := &schema.Column{JavaType: code, NotNull: true, NotNullExplicit: true}
	if value == DiscriminatorNull {
		tmpl.NotNull = false
	}

	cols, err := d.info.GetColumns(d, []*schema.Column{tmpl}, mode)
	if err != nil {
		return err
	}

	d.value = value
	d.columns = cols
	d.io = d.info.ColumnIO()

	d.index, err = d.info.GetIndex(d, cols, mode)

	return err
}

// superclassDiscriminatorStrategy reuses the discriminator columns of the
// base class. The value follows the base strategy.
type superclassDiscriminatorStrategy struct {
	d *Discriminator
}

func (s *superclassDiscriminatorStrategy) Alias() string { return DiscriminatorSuperclass }

func (s *superclassDiscriminatorStrategy) Map(mode Mode) error {
	d := s.d

	if err := d.info.AssertNoSchemaComponents(d, !mode.Adapt()); err != nil {
		return err
	}

	sup := d.cls.JoinableSuperclass()
	if sup == nil {
		return metaErr(d, "discriminator-no-super", "class has no superclass to take the discriminator from")
	}

	if err := d.Repository().Installer().InstallDiscriminator(sup.disc); err != nil {
		return err
	}

	d.columns = sup.disc.columns
	d.io = sup.disc.io
	d.index = nil
	d.value = nil

	switch baseDiscriminatorAlias(d) {
	case DiscriminatorClassName:
		d.value = d.cls.Name
	case DiscriminatorValueMap:
		d.value = d.info.GetValue(d, mode)
	}

	return nil
}

// baseDiscriminatorAlias returns the strategy alias of the hierarchy's
// own discriminator, skipping superclass strategies.
func baseDiscriminatorAlias(d *Discriminator) string {
	for c := d.cls; c != nil; c = c.JoinableSuperclass() {
		s := c.disc.strategy
		if s == nil {
			return ""
		}

		if s.Alias() != DiscriminatorSuperclass {
			return s.Alias()
		}
	}

	return ""
}

// storesValue reports whether the resolved value comes from the mapping
// info rather than the class name.
func (d *Discriminator) storesValue() bool {
	return baseDiscriminatorAlias(d) == DiscriminatorValueMap
}

// subclassJoinDiscriminatorStrategy tells classes apart by outer joining
// the tables of vertically mapped subclasses.
type subclassJoinDiscriminatorStrategy struct {
	d *Discriminator
}

func (s *subclassJoinDiscriminatorStrategy) Alias() string { return DiscriminatorSubclassJoin }

func (s *subclassJoinDiscriminatorStrategy) Map(mode Mode) error {
	d := s.d

	d.columns = nil
	d.index = nil
	d.value = nil

	for _, sub := range d.cls.subs {
		if sub.info.Strategy == ClassFlat || (sub.strategy != nil && sub.strategy.Alias() == ClassFlat) {
			return metaErr(d, "subclass-join-flat", "subclass %s shares the table and cannot be found by join", sub)
		}
	}

	return d.info.AssertNoSchemaComponents(d, !mode.Adapt())
}

type noneDiscriminatorStrategy struct {
	d *Discriminator
}

func (s *noneDiscriminatorStrategy) Alias() string { return DiscriminatorNone }

func (s *noneDiscriminatorStrategy) Map(mode Mode) error {
	s.d.columns = nil
	s.d.index = nil
	s.d.value = nil
	s.d.io = ColumnIO{}

	return s.d.info.AssertNoSchemaComponents(s.d, false)
}
