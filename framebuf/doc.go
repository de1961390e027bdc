// Package framebuf implements the bounded frame channel that connects the
// decode producer to the playback consumer.
//
// The buffer is a single-producer/single-consumer queue of canvases sized
// to roughly two seconds of playback. Both ends are strictly non-blocking:
// TryPush fails with ErrFull when the buffer is at capacity and the
// producer implements backpressure itself by retrying with a short sleep,
// while TryPop fails with ErrEmpty when nothing has been decoded yet and
// with ErrClosed once the producer has finished and every buffered frame
// has been drained.
//
// Canvases cross the buffer by pointer transfer. The producer relinquishes
// ownership on a successful push and never touches the canvas again, so no
// copy is made and no locking beyond the buffer's own is needed.
package framebuf
