// Package plan drives a resolution run and holds its result.
//
// Resolution pipeline:
//  1. Analyze packages → type graph
//  2. Build class mappings from the graph
//  3. Apply directives (optional) → populate mapping infos
//  4. Resolve every class against the schema group
//  5. Collect diagnostics; strict mode fails on any error
//
// ResolvedPlan.Sync reverses step 3: it rewrites the infos to their
// minimal form and exports them as directives.
package plan
