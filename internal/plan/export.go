package plan

import (
	"relmap/internal/directive"
)

// Sync rewrites every mapping info of the plan to the minimal form that
// still resolves to the current mappings, and returns those infos as a
// directive file. Feeding the file back through a Resolver with the same
// schema reproduces the plan.
func (p *ResolvedPlan) Sync() *directive.File {
	p.Repository.SyncAll()

	return directive.Export(p.Repository)
}

// SyncYAML returns the synced directives as YAML.
func (p *ResolvedPlan) SyncYAML() ([]byte, error) {
	return directive.Marshal(p.Sync())
}
