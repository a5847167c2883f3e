// Package ledger implements an append-only, tamper-evident chain of blocks linked by
// cryptographic hashes.
//
// # Core Components
//
// Block: An index, a timestamp, an opaque JSON payload, the hash of the previous block
// and its own hash, computed once from the other four fields.
//
// Blockchain: An ordered sequence of blocks rooted at a genesis block. Append is the
// only mutator; Verify recomputes every hash and checks every link.
//
// # Digest
//
// By default a block hash is the SHA-256 of the concatenation
//
//	decimal(index) || timestamp || canonicalJSON(payload) || prevHash
//
// encoded as 64 lowercase hex characters. Payloads are serialized with sorted object keys
// so equal payloads always produce equal hashes.
//
// # Security Properties
//
// The blockchain provides:
//   - Tamper detection: changing any field of a stored block breaks its hash
//   - Linkage: each block references the hash of its predecessor
//   - Reproducibility: a chain decoded from JSON verifies exactly like the chain it was encoded from
//
// Indices are supplied by the caller and are not checked unless WithStrictIndex is used.
//
// # Usage
//
// Create a blockchain with NewBlockchain, then Append blocks. IsValid and Verify can be
// called at any time to ensure the chain remains intact.
package ledger
