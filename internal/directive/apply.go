package directive

import (
	"fmt"

	"relmap/internal/diagnostic"
	"relmap/internal/match"
	"relmap/internal/meta"
)

// Apply copies the directives of f into the mapping infos of the classes
// in repo. It must run before resolution. Unknown classes and fields are
// reported with suggestions; other entries are still applied.
func Apply(f *File, repo *meta.Repository) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}
	if f == nil {
		res.AddError("directive-nil", "directive file is nil", "", "")
		return res
	}

	seen := make(map[*meta.ClassMapping]string, len(f.Classes))

	for i := range f.Classes {
		cd := &f.Classes[i]

		cm := repo.Class(cd.Class)
		if cm == nil {
			res.AddErr(diagnostic.Errorf("unknown-class", cd.Class, "no class %q is known", cd.Class).
				WithSuggestions(match.Suggest(cd.Class, repo.ClassNames(), 3)...))

			continue
		}

		if prev, ok := seen[cm]; ok {
			res.AddError("dup-class-directive", fmt.Sprintf("class is also mapped by the directive for %q", prev), cm.String(), "")
			continue
		}

		seen[cm] = cd.Class

		if err := applyClass(cm, cd); err != nil {
			res.AddErr(err)
		}

		applyFields(res, cm, cd.Fields)
	}

	return res
}

func badDirective(ctx fmt.Stringer, err error) error {
	return diagnostic.Wrap(err, "bad-directive", ctx.String(), "invalid directive")
}

func applyClass(cm *meta.ClassMapping, cd *ClassDirective) error {
	ci := cm.Info()

	if cd.Table != "" {
		ci.TableName = cd.Table
	}

	if cd.Schema != "" {
		ci.SchemaName = cd.Schema
	}

	if cd.Hierarchy != "" {
		ci.HierarchyStrategy = cd.Hierarchy
	}

	ci.Joined = ci.Joined || cd.Joined

	if err := applyComponents(&ci.MappingInfo, &cd.Components); err != nil {
		return badDirective(cm, err)
	}

	for _, st := range cd.SecondaryTables {
		cols, err := toColumns(st.JoinColumns)
		if err != nil {
			return badDirective(cm, err)
		}

		ci.AddSecondaryTable(st.Table, cols)
	}

	for i := range cd.Uniques {
		u := &cd.Uniques[i]

		table := u.Table
		if table == "" {
			table = ci.TableName
		}

		if table == "" {
			return diagnostic.Errorf("unique-no-table", cm.String(), "unique constraint %q names no table and the class declares none", u.Name)
		}

		ci.AddUnique(table, toUnique(u))
	}

	if vd := cd.Version; vd != nil {
		if err := applyComponents(&cm.Version().Info().MappingInfo, &vd.Components); err != nil {
			return badDirective(cm.Version(), err)
		}
	}

	if dd := cd.Discriminator; dd != nil {
		di := cm.Discriminator().Info()
		if err := applyComponents(&di.MappingInfo, &dd.Components); err != nil {
			return badDirective(cm.Discriminator(), err)
		}

		if dd.Value != "" {
			di.Value = dd.Value
		}
	}

	return nil
}

func fieldNames(cm *meta.ClassMapping) []string {
	fields := cm.Fields()

	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}

	return names
}

func applyFields(res *diagnostic.Diagnostics, cm *meta.ClassMapping, fields []FieldDirective) {
	for i := range fields {
		fd := &fields[i]

		fm := cm.Field(fd.Field)
		if fm == nil {
			res.AddErr(diagnostic.Errorf("unknown-field", cm.String(), "class has no field %q", fd.Field).
				WithSuggestions(match.Suggest(fd.Field, fieldNames(cm), 3)...))

			continue
		}

		if fm.Owner() != cm && !cm.IsEmbedded() {
			res.AddWarning("inherited-field-directive",
				fmt.Sprintf("field %q is declared by %s; the directive applies there", fd.Field, fm.Owner()), cm.String(), "")
		}

		if err := applyField(fm, fd); err != nil {
			res.AddErr(err)
			continue
		}

		parts := []struct {
			name string
			vd   *ValueDirective
			vm   *meta.ValueMapping
		}{
			{"value", fd.Value, fm.Value()},
			{"key", fd.Key, fm.Key()},
			{"element", fd.Element, fm.Element()},
		}

		for _, p := range parts {
			if p.vd == nil {
				continue
			}

			if p.vm == nil {
				res.AddErr(diagnostic.Errorf("no-such-value", fm.String(), "field has no %s to map", p.name))
				continue
			}

			if err := applyValue(p.vm, p.vd); err != nil {
				res.AddErr(err)
				continue
			}

			if len(p.vd.Embedded) == 0 {
				continue
			}

			emb := p.vm.EmbeddedMapping()
			if emb == nil {
				res.AddErr(diagnostic.Errorf("not-embedded", p.vm.String(), "embedded fields are given but the %s is not embedded", p.name))
				continue
			}

			applyFields(res, emb, p.vd.Embedded)
		}
	}
}

func applyField(fm *meta.FieldMapping, fd *FieldDirective) error {
	fi := fm.Info()

	if fd.Table != "" {
		fi.TableName = fd.Table
	}

	fi.OuterJoin = fi.OuterJoin || fd.OuterJoin

	if err := applyComponents(&fi.MappingInfo, &fd.Components); err != nil {
		return badDirective(fm, err)
	}

	if fd.OrderColumn != nil {
		col, err := toColumn(*fd.OrderColumn)
		if err != nil {
			return badDirective(fm, err)
		}

		fi.OrderColumn = col
	}

	if fd.CanOrderColumn != nil {
		fi.CanOrderColumn = toAllowance(fd.CanOrderColumn)
	}

	for i := range fd.JoinUniques {
		fi.JoinTableUniques = append(fi.JoinTableUniques, toUnique(&fd.JoinUniques[i]))
	}

	return nil
}

func applyValue(vm *meta.ValueMapping, vd *ValueDirective) error {
	vi := vm.Info()

	if err := applyComponents(&vi.MappingInfo, &vd.Components); err != nil {
		return badDirective(vm, err)
	}

	vi.UseClassCriteria = vi.UseClassCriteria || vd.UseClassCriteria

	if vd.CanIndicateNull != nil {
		vi.CanIndicateNull = toAllowance(vd.CanIndicateNull)
	}

	return nil
}
