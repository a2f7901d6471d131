// Package match normalizes identifiers and ranks known names against a
// name that failed to resolve, for "did you mean" suggestions.
//
// Key functions:
//   - NormalizeIdent: normalizes identifiers for fuzzy matching
//   - SnakeCase: splits CamelCase identifiers into lower snake case
//   - Levenshtein: computes edit distance between strings
//   - Suggest: alternatives for unknown class names, fields and aliases
package match
