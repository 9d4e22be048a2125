// Package preflight provides readiness checks for the filesystem paths and
// executables tempo depends on.
//
// These checks run in two contexts:
//   - The workflow session calls RunBatchChecks before touching any media,
//     so a missing media directory fails fast instead of per file.
//   - The CLI "tempo doctor" command prints every check, including the
//     optional ones.
package preflight
