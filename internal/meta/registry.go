package meta

import (
	"slices"
	"strings"
	"sync"

	"relmap/internal/common"
	"relmap/internal/diagnostic"
	"relmap/internal/match"
	"relmap/internal/schema"
)

// Class strategy aliases.
const (
	ClassFull     = "full"
	ClassFlat     = "flat"
	ClassVertical = "vertical"
	ClassNone     = "none"
)

// Field strategy aliases.
const (
	FieldNone                         = "none"
	FieldHandler                      = "handler"
	FieldPrimitive                    = "primitive"
	FieldString                       = "string"
	FieldRelation                     = "relation"
	FieldEmbed                        = "embed"
	FieldRelationCollectionTable      = "relation-collection-table"
	FieldRelationCollectionInverseKey = "relation-collection-inverse-key"
	FieldHandlerCollectionTable       = "handler-collection-table"
	FieldHandlerHandlerMapTable       = "handler-handler-map-table"
	FieldHandlerRelationMapTable      = "handler-relation-map-table"
	FieldRelationHandlerMapTable      = "relation-handler-map-table"
	FieldRelationRelationMapTable     = "relation-relation-map-table"
	FieldRelationMapInverseKey        = "relation-map-inverse-key"
	FieldRelationMapTable             = "relation-map-table"
	FieldLOB                          = "lob"
)

// Version strategy aliases.
const (
	VersionNumber     = "number"
	VersionTimestamp  = "timestamp"
	VersionNone       = "none"
	VersionSuperclass = "superclass"
)

// Discriminator strategy aliases.
const (
	DiscriminatorClassName    = "class-name"
	DiscriminatorValueMap     = "value-map"
	DiscriminatorSuperclass   = "superclass"
	DiscriminatorSubclassJoin = "subclass-join"
	DiscriminatorNone         = "none"
)

// Value handler aliases. A handler alias may carry an argument in
// parentheses, as in "enum(ordinal)".
const (
	HandlerBlob      = "blob"
	HandlerClob      = "clob"
	HandlerByteArray = "byte-array"
	HandlerCharArray = "char-array"
	HandlerImmutable = "immutable"
	HandlerEnum      = "enum"
	HandlerUntypedPC = "untyped-pc"
	HandlerObjectID  = "object-id"
)

// ClassStrategy maps a class to its table and identity columns.
type ClassStrategy interface {
	Alias() string
	Map(mode Mode) error
}

// FieldStrategy maps a field to columns, join tables and keys.
type FieldStrategy interface {
	Alias() string
	Map(mode Mode) error
}

// VersionStrategy maps the version indicator of a class.
type VersionStrategy interface {
	Alias() string
	Map(mode Mode) error
}

// DiscriminatorStrategy maps the discriminator of a class.
type DiscriminatorStrategy interface {
	Alias() string
	Map(mode Mode) error
}

// ValueHandler stores one value in columns of the field's table. Map
// returns column templates named by the value info, or columns already in a
// table.
type ValueHandler interface {
	Alias() string
	Map(vm *ValueMapping, name string, io *ColumnIO, mode Mode) ([]*schema.Column, error)
}

// Kind is the kind of mapping object a strategy applies to.
type Kind int

const (
	KindClass Kind = iota
	KindField
	KindVersion
	KindDiscriminator
	KindHandler
)

// Kinds lists every strategy kind.
var Kinds = []Kind{KindClass, KindField, KindVersion, KindDiscriminator, KindHandler}

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindField:
		return "field"
	case KindVersion:
		return "version"
	case KindDiscriminator:
		return "discriminator"
	case KindHandler:
		return "handler"
	default:
		return common.UnknownStr
	}
}

type (
	ClassFactory         func(cm *ClassMapping) (ClassStrategy, error)
	FieldFactory         func(fm *FieldMapping) (FieldStrategy, error)
	VersionFactory       func(v *Version) (VersionStrategy, error)
	DiscriminatorFactory func(d *Discriminator) (DiscriminatorStrategy, error)
	// HandlerFactory receives the parenthesized alias argument, if any.
	HandlerFactory func(arg string) (ValueHandler, error)
)

// Registry maps strategy aliases to factories. NewRegistry returns one
// holding the built-in strategies; Register* adds or replaces entries.
type Registry struct {
	mu             sync.RWMutex
	classes        map[string]ClassFactory
	fields         map[string]FieldFactory
	versions       map[string]VersionFactory
	discriminators map[string]DiscriminatorFactory
	handlers       map[string]HandlerFactory
}

// NewRegistry creates a registry with the built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{
		classes:        make(map[string]ClassFactory),
		fields:         make(map[string]FieldFactory),
		versions:       make(map[string]VersionFactory),
		discriminators: make(map[string]DiscriminatorFactory),
		handlers:       make(map[string]HandlerFactory),
	}

	registerBuiltins(r)

	return r
}

func (r *Registry) RegisterClass(alias string, f ClassFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.classes[alias] = f
}

func (r *Registry) RegisterField(alias string, f FieldFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.fields[alias] = f
}

func (r *Registry) RegisterVersion(alias string, f VersionFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.versions[alias] = f
}

func (r *Registry) RegisterDiscriminator(alias string, f DiscriminatorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.discriminators[alias] = f
}

func (r *Registry) RegisterHandler(alias string, f HandlerFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[alias] = f
}

// Aliases returns the registered aliases of kind k, sorted.
func (r *Registry) Aliases(k Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string

	switch k {
	case KindClass:
		out = keys(r.classes)
	case KindField:
		out = keys(r.fields)
	case KindVersion:
		out = keys(r.versions)
	case KindDiscriminator:
		out = keys(r.discriminators)
	case KindHandler:
		out = keys(r.handlers)
	}

	slices.Sort(out)

	return out
}

// Has reports whether alias, without any argument, is registered for k.
func (r *Registry) Has(k Kind, alias string) bool {
	base, _ := splitAlias(alias)
	return slices.Contains(r.Aliases(k), base)
}

func keys[F any](m map[string]F) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	return out
}

// splitAlias separates "enum(ordinal)" into "enum" and "ordinal".
func splitAlias(s string) (alias, arg string) {
	s = strings.TrimSpace(s)

	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return s, ""
	}

	return strings.TrimSpace(s[:open]), strings.TrimSpace(s[open+1 : len(s)-1])
}

func lookup[F any](r *Registry, m map[string]F, alias string) (F, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := m[alias]

	return f, ok
}

func unknownAlias(ctx Context, k Kind, alias string, known []string) *diagnostic.MetaError {
	return metaErr(ctx, "bad-strategy", "unknown %s strategy %q", k, alias).
		WithSuggestions(match.Suggest(alias, known, 3)...)
}

func initFailed(ctx Context, k Kind, alias string, err error) *diagnostic.MetaError {
	return diagnostic.Wrap(err, "strategy-init", describe(ctx), "cannot create %s strategy %q", k, alias)
}

// construct runs a factory, wrapping its failure.
func construct[T Context, S any, F ~func(T) (S, error)](target T, k Kind, alias string, f F) (S, error) {
	s, err := f(target)
	if err != nil {
		var zero S
		return zero, initFailed(target, k, alias, err)
	}

	return s, nil
}

func (r *Registry) newClass(cm *ClassMapping, alias string) (ClassStrategy, error) {
	f, ok := lookup(r, r.classes, alias)
	if !ok {
		return nil, unknownAlias(cm, KindClass, alias, r.Aliases(KindClass))
	}

	return construct(cm, KindClass, alias, f)
}

func (r *Registry) newField(fm *FieldMapping, alias string) (FieldStrategy, error) {
	f, ok := lookup(r, r.fields, alias)
	if !ok {
		return nil, unknownAlias(fm, KindField, alias, r.Aliases(KindField))
	}

	return construct(fm, KindField, alias, f)
}

func (r *Registry) newVersion(v *Version, alias string) (VersionStrategy, error) {
	f, ok := lookup(r, r.versions, alias)
	if !ok {
		return nil, unknownAlias(v, KindVersion, alias, r.Aliases(KindVersion))
	}

	return construct(v, KindVersion, alias, f)
}

func (r *Registry) newDiscriminator(d *Discriminator, alias string) (DiscriminatorStrategy, error) {
	f, ok := lookup(r, r.discriminators, alias)
	if !ok {
		return nil, unknownAlias(d, KindDiscriminator, alias, r.Aliases(KindDiscriminator))
	}

	return construct(d, KindDiscriminator, alias, f)
}

// newHandler creates the handler for a possibly parameterized alias.
func (r *Registry) newHandler(ctx Context, alias string) (ValueHandler, error) {
	base, arg := splitAlias(alias)

	f, ok := lookup(r, r.handlers, base)
	if !ok {
		return nil, unknownAlias(ctx, KindHandler, base, r.Aliases(KindHandler))
	}

	h, err := f(arg)
	if err != nil {
		return nil, initFailed(ctx, KindHandler, alias, err)
	}

	return h, nil
}

// suggestField offers field names of cm close to name.
func suggestField(cm *ClassMapping, name string) []string {
	if cm == nil {
		return nil
	}

	fields := cm.Fields()
	names := make([]string, len(fields))

	for i, f := range fields {
		names[i] = f.Name
	}

	return match.Suggest(name, names, 3)
}
