package meta

// StrategyInstaller chooses and maps the strategies of mapping objects.
// Installing is memoized: an object already resolved is left alone. A
// failed install leaves the object as it was.
type StrategyInstaller interface {
	InstallClass(cm *ClassMapping) error
	InstallField(fm *FieldMapping) error
	InstallVersion(v *Version) error
	InstallDiscriminator(d *Discriminator) error
}

// RuntimeInstaller maps with the repository's mode and never alters
// existing schema objects. A field of an abstract class whose strategy
// cannot be mapped is left unmapped with a warning.
type RuntimeInstaller struct {
	repo *Repository
	mode Mode
}

// NewRuntimeInstaller creates a runtime installer mapping with mode, which
// is narrowed to Fill when it asks for Adapt.
func NewRuntimeInstaller(repo *Repository, mode Mode) *RuntimeInstaller {
	if mode.Adapt() {
		mode = Fill
	}

	return &RuntimeInstaller{repo: repo, mode: mode}
}

func (ri *RuntimeInstaller) InstallClass(cm *ClassMapping) error {
	return installClass(ri.repo, cm, ri.mode)
}

func (ri *RuntimeInstaller) InstallField(fm *FieldMapping) error {
	return installField(ri.repo, fm, ri.mode, true)
}

func (ri *RuntimeInstaller) InstallVersion(v *Version) error {
	return installVersion(ri.repo, v, ri.mode)
}

func (ri *RuntimeInstaller) InstallDiscriminator(d *Discriminator) error {
	return installDiscriminator(ri.repo, d, ri.mode)
}

// MappingInstaller maps in Adapt mode, changing the schema as needed.
type MappingInstaller struct {
	repo *Repository
}

// NewMappingInstaller creates an adapting installer.
func NewMappingInstaller(repo *Repository) *MappingInstaller {
	return &MappingInstaller{repo: repo}
}

func (mi *MappingInstaller) InstallClass(cm *ClassMapping) error {
	return installClass(mi.repo, cm, Adapt)
}

func (mi *MappingInstaller) InstallField(fm *FieldMapping) error {
	return installField(mi.repo, fm, Adapt, false)
}

func (mi *MappingInstaller) InstallVersion(v *Version) error {
	return installVersion(mi.repo, v, Adapt)
}

func (mi *MappingInstaller) InstallDiscriminator(d *Discriminator) error {
	return installDiscriminator(mi.repo, d, Adapt)
}

func installClass(r *Repository, cm *ClassMapping, mode Mode) error {
	if cm.state == resolved {
		return nil
	}

	restore := cm.snapshot()
	cm.state = resolving

	s, err := r.NamedClassStrategy(cm)
	if err == nil && s == nil {
		s, err = r.DefaultClassStrategy(cm, mode.Adapt())
	}

	if err == nil {
		err = cm.SetStrategy(s, mode)
	}

	if err != nil {
		restore()
		return err
	}

	cm.state = resolved
	r.diags.Info("class-resolved", cm.String(), "mapped with strategy %s", s.Alias())

	return nil
}

func installField(r *Repository, fm *FieldMapping, mode Mode, fallback bool) error {
	if fm.state == resolved {
		return nil
	}

	restore := fm.snapshot()
	fm.state = resolving

	s, err := r.NamedFieldStrategy(fm, true)
	if err == nil && s == nil {
		s, err = r.defaultFieldStrategy(fm, true, mode.Adapt())
	}

	if err == nil {
		err = fm.SetStrategy(s, mode)
	}

	if err != nil && fallback && fm.owner.Abstract && fm.info.Strategy == "" {
		restore()
		fm.state = resolving
		warn(fm, "abstract-field-unmapped", "field of abstract class left unmapped: %v", err)

		if s, err = r.registry.newField(fm, FieldNone); err == nil {
			err = fm.SetStrategy(s, mode)
		}
	}

	if err != nil {
		restore()
		return err
	}

	fm.state = resolved

	return nil
}

func installVersion(r *Repository, v *Version, mode Mode) error {
	if v.state == resolved {
		return nil
	}

	if err := r.ensureClassResolved(v.cls); err != nil {
		return err
	}

	saved := *v
	v.state = resolving

	s, err := r.NamedVersionStrategy(v)
	if err == nil && s == nil {
		s, err = r.DefaultVersionStrategy(v, mode.Adapt())
	}

	if err == nil {
		err = v.SetStrategy(s, mode)
	}

	if err != nil {
		*v = saved
		return err
	}

	v.state = resolved

	return nil
}

func installDiscriminator(r *Repository, d *Discriminator, mode Mode) error {
	if d.state == resolved {
		return nil
	}

	if err := r.ensureClassResolved(d.cls); err != nil {
		return err
	}

	saved := *d
	d.state = resolving

	s, err := r.NamedDiscriminatorStrategy(d)
	if err == nil && s == nil {
		s, err = r.DefaultDiscriminatorStrategy(d, mode.Adapt())
	}

	if err == nil {
		err = d.SetStrategy(s, mode)
	}

	if err != nil {
		*d = saved
		return err
	}

	d.state = resolved

	return nil
}

// snapshot records the mapping state of cm and returns a function that
// restores it.
func (cm *ClassMapping) snapshot() func() {
	saved := *cm

	return func() { *cm = saved }
}

// snapshot records the mapping state of fm and its values and returns a
// function that restores it.
func (fm *FieldMapping) snapshot() func() {
	saved := *fm
	values := make(map[*ValueMapping]ValueMapping, 3)

	for _, vm := range []*ValueMapping{fm.value, fm.key, fm.element} {
		if vm != nil {
			values[vm] = *vm
		}
	}

	return func() {
		*fm = saved
		for vm, v := range values {
			*vm = v
		}
	}
}
