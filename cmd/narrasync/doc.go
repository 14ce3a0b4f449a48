// Command narrasync retimes a silent video so that synthesized narration of
// each subtitle cue fits the cue's slot, then applies one global tempo pass.
//
// Subcommands convert a single video (run), pair and convert two directories
// (batch), preview the segment plan without rendering (plan), list or audition
// voices (voices, say), inspect past runs (history) and verify the
// environment (check, config).
package main
