// Package blobstore provides partitioned key/value storage for byte blobs.
//
// Entries are addressed by (partition, key). Keys are slash separated and the
// first segment of a key is its top-level entry name, which List enumerates.
// Every backend re-reads from its medium on Load; nothing is cached in
// process except by the memory backend, which is the medium.
//
// Backends:
//   - filesystem: {root}/{partition}/{key}, atomic writes; Find is unimplemented
//   - memory: process-local maps for tests and dry runs
//   - sqlite: a single blobs table (modernc.org/sqlite)
//   - redis: one string value per key (go-redis)
//   - s3 and gcs: one object per key under an optional prefix
//
// Failures of the underlying medium are tagged with services.ErrStorage;
// operations a backend cannot serve return services.ErrUnimplemented.
package blobstore
