// Package article defines the shared domain types for the byline pipeline:
// articles, their immutable stage revisions, the closed lifecycle status set,
// and the static four-stage production table (planning → research → draft →
// final).
//
// The package also carries the two pieces of pure stage logic that every
// component shares:
//
//   - LastCompleted reconstructs the most recently completed (stage, agent)
//     pair from a persisted revision history, tolerating missing, duplicate,
//     and out-of-order rows.
//   - Verify checks a revision history against the required stage table and
//     reports missing pairs plus an out-of-order warning.
//
// Verify is used in three places with identical semantics: the pipeline
// engine's completion gate, the `byline check` report, and the reconciliation
// sweep. Keeping it here prevents the three from drifting apart.
package article
