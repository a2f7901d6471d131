package meta

// SyncMappingInfo rewrites the mapping info of the class, its declared
// fields, version and discriminator to their minimal form. Resolving the
// synced infos again in Strict mode, against a schema holding the tables
// of the current mapping, yields the same mapping.
func (cm *ClassMapping) SyncMappingInfo() {
	cm.info.SyncWith(cm)

	for _, f := range cm.DeclaredFields() {
		if f.strategy != nil {
			f.SyncMappingInfo()
		}
	}

	if cm.version.strategy != nil {
		cm.version.info.SyncWith(cm.version)
	}

	if cm.disc.strategy != nil {
		cm.disc.info.SyncWith(cm.disc)
	}
}

// SyncMappingInfo rewrites the field info and the infos of its values.
// Embedded values are synced through their per-field class copy.
func (fm *FieldMapping) SyncMappingInfo() {
	fm.info.SyncWith(fm)

	for _, vm := range []*ValueMapping{fm.value, fm.key, fm.element} {
		if vm == nil {
			continue
		}

		vm.info.SyncWith(vm)

		if emb := vm.embedded; emb != nil && emb.strategy != nil {
			emb.SyncMappingInfo()
		}
	}
}
