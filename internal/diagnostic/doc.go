// Package diagnostic provides structured errors, warnings and notes produced
// while resolving mappings.
//
// Key capabilities:
//   - MetaError, the single configuration error kind, carrying a message key
//     and the entity it concerns
//   - Diagnostics lists with close-match suggestions
//   - A Collector that records downgraded conditions and logs them
package diagnostic
