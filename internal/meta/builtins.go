package meta

func registerBuiltins(r *Registry) {
	r.RegisterClass(ClassFull, func(cm *ClassMapping) (ClassStrategy, error) {
		return &fullClassStrategy{cm: cm}, nil
	})
	r.RegisterClass(ClassFlat, func(cm *ClassMapping) (ClassStrategy, error) {
		return &flatClassStrategy{cm: cm}, nil
	})
	r.RegisterClass(ClassVertical, func(cm *ClassMapping) (ClassStrategy, error) {
		return &verticalClassStrategy{cm: cm}, nil
	})
	r.RegisterClass(ClassNone, func(cm *ClassMapping) (ClassStrategy, error) {
		return &noneClassStrategy{cm: cm}, nil
	})

	r.RegisterField(FieldNone, func(fm *FieldMapping) (FieldStrategy, error) {
		return &noneFieldStrategy{fm: fm}, nil
	})
	r.RegisterField(FieldHandler, func(fm *FieldMapping) (FieldStrategy, error) {
		return &handlerFieldStrategy{fm: fm}, nil
	})
	r.RegisterField(FieldLOB, func(fm *FieldMapping) (FieldStrategy, error) {
		return &lobFieldStrategy{fm: fm}, nil
	})
	r.RegisterField(FieldRelation, func(fm *FieldMapping) (FieldStrategy, error) {
		return &relationFieldStrategy{fm: fm}, nil
	})
	r.RegisterField(FieldEmbed, func(fm *FieldMapping) (FieldStrategy, error) {
		return &embedFieldStrategy{fm: fm}, nil
	})

	for _, alias := range []string{FieldPrimitive, FieldString} {
		r.RegisterField(alias, func(fm *FieldMapping) (FieldStrategy, error) {
			return &scalarFieldStrategy{fm: fm, alias: alias}, nil
		})
	}

	collections := map[string]bool{
		FieldRelationCollectionTable: true,
		FieldHandlerCollectionTable:  false,
	}
	for alias, relation := range collections {
		r.RegisterField(alias, func(fm *FieldMapping) (FieldStrategy, error) {
			return &collectionTableStrategy{fm: fm, alias: alias, relation: relation}, nil
		})
	}

	for _, alias := range []string{FieldRelationCollectionInverseKey, FieldRelationMapInverseKey} {
		r.RegisterField(alias, func(fm *FieldMapping) (FieldStrategy, error) {
			return &inverseKeyStrategy{fm: fm, alias: alias}, nil
		})
	}

	maps := map[string][2]bool{
		FieldHandlerHandlerMapTable:   {false, false},
		FieldHandlerRelationMapTable:  {false, true},
		FieldRelationHandlerMapTable:  {true, false},
		FieldRelationRelationMapTable: {true, true},
		FieldRelationMapTable:         {false, true},
	}
	for alias, rels := range maps {
		r.RegisterField(alias, func(fm *FieldMapping) (FieldStrategy, error) {
			return &mapTableStrategy{fm: fm, alias: alias, keyRel: rels[0], valRel: rels[1]}, nil
		})
	}

	for _, alias := range []string{VersionNumber, VersionTimestamp} {
		r.RegisterVersion(alias, func(v *Version) (VersionStrategy, error) {
			return &columnVersionStrategy{v: v, alias: alias}, nil
		})
	}
	r.RegisterVersion(VersionNone, func(v *Version) (VersionStrategy, error) {
		return &noneVersionStrategy{v: v}, nil
	})
	r.RegisterVersion(VersionSuperclass, func(v *Version) (VersionStrategy, error) {
		return &superclassVersionStrategy{v: v}, nil
	})

	for _, alias := range []string{DiscriminatorClassName, DiscriminatorValueMap} {
		r.RegisterDiscriminator(alias, func(d *Discriminator) (DiscriminatorStrategy, error) {
			return &columnDiscriminatorStrategy{d: d, alias: alias}, nil
		})
	}
	r.RegisterDiscriminator(DiscriminatorSuperclass, func(d *Discriminator) (DiscriminatorStrategy, error) {
		return &superclassDiscriminatorStrategy{d: d}, nil
	})
	r.RegisterDiscriminator(DiscriminatorSubclassJoin, func(d *Discriminator) (DiscriminatorStrategy, error) {
		return &subclassJoinDiscriminatorStrategy{d: d}, nil
	})
	r.RegisterDiscriminator(DiscriminatorNone, func(d *Discriminator) (DiscriminatorStrategy, error) {
		return &noneDiscriminatorStrategy{d: d}, nil
	})

	r.RegisterHandler(HandlerImmutable, noArg(immutableHandler{}))
	r.RegisterHandler(HandlerEnum, newEnumHandler)
	r.RegisterHandler(HandlerBlob, noArg(blobHandler{}))
	r.RegisterHandler(HandlerClob, noArg(clobHandler{}))
	r.RegisterHandler(HandlerByteArray, noArg(byteArrayHandler{}))
	r.RegisterHandler(HandlerCharArray, noArg(charArrayHandler{}))
	r.RegisterHandler(HandlerUntypedPC, noArg(untypedPCHandler{}))
	r.RegisterHandler(HandlerObjectID, noArg(objectIDHandler{}))
}
