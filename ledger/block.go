package ledger

import (
	"encoding/json"
	"fmt"
)

// Block is a single record of the chain. Its Hash binds the other four fields and is
// computed once by NewBlock; Blocks stored in a Blockchain are never mutated.
type Block struct {
	Index     int             `json:"index"`
	Timestamp string          `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"` // canonical JSON of the caller's payload
	PrevHash  string          `json:"prev_hash"`
	Hash      string          `json:"hash"`
}

// NewBlock builds a fully-formed block: the payload is stored in canonical form and the
// hash is computed over index, timestamp, payload and prevHash.
func NewBlock(index int, timestamp string, payload any, prevHash string) (Block, error) {
	return newBlock(defaultHashFactory, index, timestamp, payload, prevHash)
}

func newBlock(hf HashFactory, index int, timestamp string, payload any, prevHash string) (Block, error) {
	canonical, err := canonicalPayload(payload)
	if err != nil {
		return Block{}, err
	}
	return Block{
		Index:     index,
		Timestamp: timestamp,
		Payload:   canonical,
		PrevHash:  prevHash,
		Hash:      hashFields(hf, index, timestamp, canonical, prevHash),
	}, nil
}

// DecodePayload unmarshals the stored payload into v.
func (b Block) DecodePayload(v any) error {
	if err := json.Unmarshal(b.Payload, v); err != nil {
		return fmt.Errorf("block %d: decode payload: %w", b.Index, err)
	}
	return nil
}

func (b Block) String() string {
	return fmt.Sprintf("#%d %s %s prev=%s hash=%s", b.Index, b.Timestamp, b.Payload, b.PrevHash, b.Hash)
}

// clone returns a copy that shares no memory with b.
func (b Block) clone() Block {
	c := b
	if b.Payload != nil {
		c.Payload = append(json.RawMessage(nil), b.Payload...)
	}
	return c
}
