package directive

import (
	"relmap/internal/meta"
)

// Export writes the mapping infos of the resolved classes in repo as
// directives. Run Repository.SyncAll first so that the infos describe the
// current mappings in minimal form. Embeddable classes are exported
// through the values embedding them.
func Export(repo *meta.Repository) *File {
	f := &File{Version: CurrentVersion}

	for _, cm := range repo.Classes() {
		if !cm.IsResolved() || cm.Embeddable {
			continue
		}

		f.Classes = append(f.Classes, exportClass(cm))
	}

	return f
}

func exportClass(cm *meta.ClassMapping) ClassDirective {
	ci := cm.Info()

	cd := ClassDirective{
		Class:      cm.Name,
		Table:      ci.TableName,
		Schema:     ci.SchemaName,
		Hierarchy:  ci.HierarchyStrategy,
		Joined:     ci.Joined,
		Components: exportComponents(&ci.MappingInfo),
	}

	for _, name := range ci.SecondaryTableNames() {
		cd.SecondaryTables = append(cd.SecondaryTables, SecondaryTable{
			Table:       name,
			JoinColumns: fromColumns(ci.SecondaryTableJoinColumns(name)),
		})
	}

	for _, table := range ci.UniqueTables() {
		for _, u := range ci.Uniques(table) {
			eu := fromUnique(u)
			if table != ci.TableName {
				eu.Table = table
			}

			cd.Uniques = append(cd.Uniques, *eu)
		}
	}

	if c := exportComponents(&cm.Version().Info().MappingInfo); !c.empty() {
		cd.Version = &VersionDirective{Components: c}
	}

	di := cm.Discriminator().Info()
	if c := exportComponents(&di.MappingInfo); !c.empty() || di.Value != "" {
		cd.Discriminator = &DiscriminatorDirective{Components: c, Value: di.Value}
	}

	cd.Fields = exportFields(cm)

	return cd
}

func exportFields(cm *meta.ClassMapping) []FieldDirective {
	var out []FieldDirective

	for _, fm := range cm.DeclaredFields() {
		if !fm.IsResolved() {
			continue
		}

		out = append(out, exportField(fm))
	}

	return out
}

func exportField(fm *meta.FieldMapping) FieldDirective {
	fi := fm.Info()

	fd := FieldDirective{
		Field:          fm.Name,
		Table:          fi.TableName,
		OuterJoin:      fi.OuterJoin,
		Components:     exportComponents(&fi.MappingInfo),
		CanOrderColumn: fromAllowance(fi.CanOrderColumn),
	}

	if fi.OrderColumn != nil {
		oc := fromColumn(fi.OrderColumn)
		fd.OrderColumn = &oc
	}

	for _, u := range fi.JoinTableUniques {
		fd.JoinUniques = append(fd.JoinUniques, *fromUnique(u))
	}

	fd.Value = exportValue(fm.Value())
	fd.Key = exportValue(fm.Key())
	fd.Element = exportValue(fm.Element())

	return fd
}

func exportValue(vm *meta.ValueMapping) *ValueDirective {
	if vm == nil {
		return nil
	}

	vi := vm.Info()

	vd := &ValueDirective{
		Components:       exportComponents(&vi.MappingInfo),
		UseClassCriteria: vi.UseClassCriteria,
		CanIndicateNull:  fromAllowance(vi.CanIndicateNull),
	}

	if emb := vm.EmbeddedMapping(); emb != nil && emb.IsResolved() {
		vd.Embedded = exportFields(emb)
	}

	if vd.Components.empty() && !vd.UseClassCriteria && vd.CanIndicateNull == nil && len(vd.Embedded) == 0 {
		return nil
	}

	return vd
}
