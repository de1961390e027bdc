// Package audio manages the lifecycle of an external audio playback
// process.
//
// The playback core deliberately does not decode or mix audio. Instead an
// ffplay subprocess plays the audio file alongside video rendering, and
// this package owns starting, monitoring, and stopping that process. Sync
// relies solely on both sides starting from the same wall-clock origin;
// the video scheduler never queries audio position.
package audio
