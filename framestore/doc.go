// Package framestore reads and writes pre-extracted frame sets for the
// non-live playback path.
//
// A store file holds a whole video quantized to one bit per pixel: a small
// header (width, height, frame count) followed by a zstd-compressed body
// of packed frames. Flat two-color content survives this quantization
// intact while compressing far below raw RGB.
//
// Loading keeps only the packed frames in memory. Expanding a packed frame
// back to RGB happens on demand through a least-recently-used cache, so
// replaying a section does not re-expand every frame while memory use
// stays bounded.
package framestore
