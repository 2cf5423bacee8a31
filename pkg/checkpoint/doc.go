// Package checkpoint lets an interrupted follower pull resume.
//
// A checkpoint lists the roots that already reached a final state
// (exhausted, limit_reached or skipped). On resume those roots are not
// requested again, so their edges are not appended to the edge file twice.
//
// Checkpoints are stored in platform-specific data directories:
//   - Linux: ~/.local/share/twhydrate/checkpoints/
//   - macOS: ~/Library/Application Support/twhydrate/checkpoints/
//   - Windows: %APPDATA%/twhydrate/checkpoints/
package checkpoint
