// Package narration wraps the speech synthesis provider.
//
// Provider is the single capability the timeline builder depends on. EdgeTTS
// implements it by shelling out to the edge-tts command-line client, writing
// each utterance to a temporary media file in the work directory and decoding
// it into an audio.Clip. Voice enumeration for the CLI lives in voices.go.
package narration
