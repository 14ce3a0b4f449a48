// Package timeline turns parsed cues into the ordered segment list the
// retiming engine renders.
//
// Build folds over the cues in order, carrying the end of the previous cue.
// Gaps wider than the configured epsilon become silent segments played at
// normal speed; narrower gaps are absorbed into the next cue's video range so
// the segments always tile [0, lastCue.End) without holes. Each spoken segment
// records the factor its video range must be stretched by so the video lasts
// exactly as long as the trimmed narration.
//
// Narration is fetched concurrently ahead of the fold with a bounded pool.
// Results are stored by cue position, so the fold itself stays sequential and
// the output does not depend on completion order.
package timeline
