// Package keys signs and verifies canonical CBOR payloads.
//
// Signatures always cover a digest of the exact canonical bytes, so two
// parties that agree on a value agree on what was signed. Payloads that are
// not canonical are refused at both the signing and verification boundary.
package keys
