// Package ffmpeg builds ffmpeg argument lists for raw-frame pipelines.
//
// DecodeArgs turns probe metadata plus trimming and downscale options into a
// command that writes packed RGB frames to stdout, and reports the frame
// geometry the caller must read with. EncodeArgs builds the inverse: an H.264
// encode reading packed frames from stdin. Both return argument lists without
// the binary name so callers can choose which ffmpeg to execute.
//
// Frame dimensions are aligned to multiples of 16 (AlignUp16) so the scale
// filter output and the fixed-size frame buffers agree on stride.
package ffmpeg
