// Package analyzer classifies video content ahead of playback.
//
// The classifier samples the first frames of a source and measures how
// much of each frame changes relative to the previous one. Flat,
// two-color animation changes few pixels per frame, while photographic
// live-action footage changes most of them. Callers use the class to pick
// a rendering strategy or frame-store quantization; the classifier is a
// peripheral preprocessing step, not part of the rendering engine.
package analyzer
