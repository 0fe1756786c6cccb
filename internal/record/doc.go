// Package record provides the value model for data entry records.
//
// A record is an Object of sealed Values. Records are decoded from the
// tally archive, mutated in place by pipeline units and rendered at the end
// of a run.
//
// Key design constraints:
//   - NO float types (use Int for counts and positions)
//   - Null is representable so winner positions can be cleared
//   - Canonical JSON (RFC 8785, NFC strings) is used for hashing only
//
// This package imports nothing internal.
package record
