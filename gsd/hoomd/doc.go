// Package hoomd stores HOOMD-style particle snapshots as frames of a gsd/fl file.
//
// # Reading Guide
//
//   - snapshot.go: the Snapshot value type; every field is an Optional
//   - schema.go: the static field table (chunk names, element types, defaults)
//   - writer.go: sparse encoding of the fields a producer set
//   - composer.go: fallback and default resolution when reading a frame
//   - trajectory.go: frame addressing, slices, Append and Extend
//   - yaml.go: snapshots as YAML documents, decoded lazily from a stream
//   - options.go: fallback policy selection
//
// # Fallback
//
// Only explicitly set fields are written. When a frame is read, a field without a chunk
// in that frame takes its most recent earlier value, provided the category's entity
// count N has not changed since; otherwise it takes the schema default. Configuration
// fields, N itself and the type-name lists are not entity-shaped and always carry
// forward.
package hoomd
