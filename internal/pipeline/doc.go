// Package pipeline wires the narrasync stages together: subtitle parsing,
// narration and timeline construction, segment retiming and the global tempo
// pass. Runner.Run converts one video; Runner.Batch pairs the videos and
// subtitles of two directories and converts each pair.
//
// Every run holds an advisory lock on its output path, records itself in the
// history store when one is attached, and removes its work directory on exit.
package pipeline
