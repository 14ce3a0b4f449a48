// Package preflight provides readiness checks for the filesystem paths a run
// depends on.
//
// These checks run in two contexts:
//   - The pipeline calls CheckInputs before any narration is requested, so a
//     missing subtitle or an unwritable output directory fails fast.
//   - The CLI "narrasync check" command uses RunAll to display the health of
//     the configured directories next to the binary checks from deps.
package preflight
