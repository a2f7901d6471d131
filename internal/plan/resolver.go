package plan

import (
	"errors"
	"fmt"

	"relmap/internal/analyze"
	"relmap/internal/diagnostic"
	"relmap/internal/dict"
	"relmap/internal/directive"
	"relmap/internal/logger"
	"relmap/internal/meta"
	"relmap/internal/schema"
)

// ErrStrict is returned by Resolve in strict mode when resolution
// recorded errors.
var ErrStrict = errors.New("strict mode: resolution failed with errors")

// ResolutionConfig holds configuration for the resolution process.
type ResolutionConfig struct {
	// Mode bounds what resolution may synthesize or alter.
	Mode meta.Mode
	// StrictMode fails on any error diagnostic.
	StrictMode bool
	// Dialect names the dictionary used for types and identifiers.
	Dialect string
	// Preset names the mapping defaults, "native" or "jpa".
	Preset string
	// DefaultSchema qualifies tables named without a schema.
	DefaultSchema string
}

// DefaultConfig returns the default resolution configuration.
func DefaultConfig() ResolutionConfig {
	return ResolutionConfig{
		Mode:    meta.Adapt,
		Dialect: "generic",
		Preset:  meta.PresetNative,
	}
}

// Resolver performs the resolution pipeline: class mappings are derived
// from the type graph, directives are applied on top, and every class is
// resolved against the schema.
type Resolver struct {
	graph      *analyze.TypeGraph
	directives *directive.File
	config     ResolutionConfig

	group    *schema.Group
	loader   schema.Loader
	registry *meta.Registry
}

// NewResolver creates a new Resolver. directives may be nil.
func NewResolver(graph *analyze.TypeGraph, directives *directive.File, config ResolutionConfig) *Resolver {
	return &Resolver{
		graph:      graph,
		directives: directives,
		config:     config,
	}
}

// SetSchema resolves against an existing schema group, such as one read
// from a live database.
func (r *Resolver) SetSchema(g *schema.Group) {
	r.group = g
}

// SetLoader installs a loader for tables the schema group does not hold.
func (r *Resolver) SetLoader(l schema.Loader) {
	r.loader = l
}

// SetRegistry replaces the built-in strategy registry.
func (r *Resolver) SetRegistry(reg *meta.Registry) {
	r.registry = reg
}

// Resolve runs the full resolution pipeline and returns a ResolvedPlan.
// Failures of single classes or fields are recorded as diagnostics; the
// returned error is reserved for configuration problems and strict mode.
func (r *Resolver) Resolve() (*ResolvedPlan, error) {
	if r.graph == nil {
		return nil, errors.New("type graph is required")
	}

	d, err := dict.New(r.config.Dialect)
	if err != nil {
		return nil, err
	}

	defaults, ok := meta.DefaultsFor(r.config.Preset)
	if !ok {
		return nil, fmt.Errorf("unknown naming preset %q", r.config.Preset)
	}

	repo := meta.NewRepository(meta.RepositoryConfig{
		Dictionary:    d,
		Defaults:      defaults,
		Registry:      r.registry,
		Logger:        logger.Default(),
		Group:         r.group,
		Loader:        r.loader,
		Mode:          r.config.Mode,
		DefaultSchema: r.config.DefaultSchema,
	})

	plan := &ResolvedPlan{
		TypeGraph:  r.graph,
		Repository: repo,
	}

	plan.Diagnostics.Merge(analyze.BuildClasses(r.graph, repo))

	if r.directives != nil {
		plan.Diagnostics.Merge(*directive.Apply(r.directives, repo))
	}

	logger.Debugf("resolving %s", repo.Describe())

	if err := repo.ResolveAll(); err != nil {
		logger.Debugf("resolution recorded errors, first: %v", err)
	}

	plan.Diagnostics.Merge(repo.Diagnostics())
	plan.Classes = repo.Classes()
	plan.Schema = repo.SchemaGroup()

	if r.config.StrictMode && plan.Diagnostics.HasErrors() {
		return plan, ErrStrict
	}

	return plan, nil
}
