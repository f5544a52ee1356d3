// Package fs abstracts the file system operations used by the local store
// backend.
//
//   - [File]: an open file with read/write/sync capabilities
//   - [FileSystem]: filesystem operations (open, remove, rename, walk)
//
// [LocalFS] is the production implementation backed by the os package;
// [FaultyFS] injects I/O errors for tests of the atomic sidecar write path.
//
// The package intentionally has no context.Context parameters: local
// filesystem calls are fast and non-interruptible at the syscall level.
// Remote access goes through the store backends, which take contexts.
package fs
