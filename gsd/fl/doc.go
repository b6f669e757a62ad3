// Package fl implements the GSD-Go chunk store: a single append-only file holding a
// header followed by data records and commit records.
//
// # Layout
//
//	[header][record]*
//
// A data record carries the (possibly compressed) bytes of one chunk. A commit record
// closes a frame: it interns the names first used by that frame and lists the frame's
// index entries. Readers only ever see frames whose commit record is intact, so a
// process killed mid-append leaves the file readable up to the last committed frame.
//
// # Usage
//
//	f, err := fl.Open("traj.gsd", fl.Append, fl.WithSchema("hoomd", fl.Version{Major: 1}))
//	if err != nil { ... }
//	defer f.Close()
//	f.WriteChunk("particles/N", fl.Uint32, 1, 1, buf)
//	f.EndFrame()
//
// Entries are looked up by (frame, name) through an in-memory B-tree built when the file
// is opened. A File is not safe for concurrent use.
package fl
