// Package directory resolves logical index names to storage locations.
//
// A [Factory] is the only place that knows where an index's segments live.
// Three factories are provided:
//
//   - [FileSystem]: one directory per index under a root
//   - [Memory]: in-memory indexes that live as long as the engine
//   - [SyncedTemp]: a working copy in a temp root, seeded from and synced
//     back to a main root under a cross-process file lock
//
// Factories are cheap values; a registry may construct a fresh one for every
// resolution.
package directory
