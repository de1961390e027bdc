// Package video provides frame acquisition and geometric preparation for
// terminal playback.
//
// The package covers the producer side of the playback pipeline: opening a
// video source, pulling decoded RGB frames from it, and transforming each
// frame onto a fixed-size output canvas while preserving aspect ratio.
//
// The decode pipeline:
//
//	Source (ffmpeg rawvideo pipe) → Frame (native RGB) → Transformer → Canvas
//
// Decoding itself is delegated to an external ffmpeg process reading the
// container and writing raw rgb24 frames to a pipe. Stream metadata (frame
// rate and native dimensions) is probed with ffprobe before decoding starts.
// The Transformer then applies a uniform scale and composites the result
// onto the target canvas, either letterboxed (padded) or filled (cropped).
package video
