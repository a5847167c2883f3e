package ledger

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
)

// Blockchain is an append-only sequence of blocks rooted at a genesis block.
// Append is serialized by a write lock; reads and validations share a read lock.
type Blockchain struct {
	mu     sync.RWMutex // Protects blocks
	blocks []Block
	opts   options
}

// NewBlockchain creates a new blockchain holding only its genesis block. The genesis
// timestamp is taken from the configured clock at creation time.
func NewBlockchain(opts ...Option) (*Blockchain, error) {
	o := applyOptions(opts)
	bc := &Blockchain{
		blocks: make([]Block, 0, 1),
		opts:   o,
	}

	genesis, err := newGenesisBlock(o.hashFactory, o.clock().Format(o.timestampLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to create genesis block: %w", err)
	}
	bc.blocks = append(bc.blocks, genesis)
	o.logger.Debug("blockchain created", "genesis", genesis.Hash)

	return bc, nil
}

// FromBlocks wraps already built blocks, for example blocks decoded from JSON, in a
// Blockchain. The blocks are copied and not validated: call Verify.
func FromBlocks(blocks []Block, opts ...Option) *Blockchain {
	bc := &Blockchain{
		blocks: cloneBlocks(blocks),
		opts:   applyOptions(opts),
	}
	return bc
}

// Append links a new block to the latest one and adds it to the chain. The caller
// supplies index, timestamp and payload; the index is only checked against the latest
// block when strict indexing is enabled. Returns the stored block.
func (bc *Blockchain) Append(index int, timestamp string, payload any) (Block, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	o := bc.options()

	if len(bc.blocks) == 0 {
		return Block{}, ErrEmptyChain
	}
	latest := bc.blocks[len(bc.blocks)-1]

	if o.strictIndex && index != latest.Index+1 {
		return Block{}, fmt.Errorf("%w: expected %d, got %d", ErrIndexMismatch, latest.Index+1, index)
	}

	block, err := newBlock(o.hashFactory, index, timestamp, payload, latest.Hash)
	if err != nil {
		return Block{}, fmt.Errorf("block %d: %w", index, err)
	}
	bc.blocks = append(bc.blocks, block)

	o.logger.Debug("block appended", "index", block.Index, "hash", block.Hash, "prev_hash", block.PrevHash)
	return block.clone(), nil
}

// Latest returns the most recently added block.
func (bc *Blockchain) Latest() (Block, error) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	if len(bc.blocks) == 0 {
		return Block{}, ErrEmptyChain
	}
	return bc.blocks[len(bc.blocks)-1].clone(), nil
}

// ByIndex returns the block at the given position of the chain.
func (bc *Blockchain) ByIndex(position int) (Block, error) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	if position < 0 || position >= len(bc.blocks) {
		return Block{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, position, len(bc.blocks))
	}
	return bc.blocks[position].clone(), nil
}

func (bc *Blockchain) Len() int {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return len(bc.blocks)
}

// Blocks returns a copy of the chain in order.
func (bc *Blockchain) Blocks() []Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return cloneBlocks(bc.blocks)
}

// IsValid reports whether every block's hash matches its content and every block
// references its predecessor's hash.
func (bc *Blockchain) IsValid() bool {
	return bc.Verify() == nil
}

// Verify validates the whole chain without modifying it. It returns nil for a valid
// chain and a *ValidationError describing the first failing block otherwise.
func (bc *Blockchain) Verify() error {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	o := bc.options()

	if err := verifyBlocks(o, bc.blocks); err != nil {
		o.logger.Warn("blockchain verification failed", "error", err)
		return err
	}
	return nil
}

// VerifyBlocks validates a chain given as a slice. An empty slice is valid.
func VerifyBlocks(blocks []Block, opts ...Option) error {
	return verifyBlocks(applyOptions(opts), blocks)
}

func verifyBlocks(o options, blocks []Block) error {
	if len(blocks) == 0 {
		return nil
	}

	if err := validateGenesis(o, blocks[0]); err != nil {
		return err
	}

	for i := 1; i < len(blocks); i++ {
		if err := validateBlock(o, i, blocks[i], blocks[i-1]); err != nil {
			return err
		}
	}
	return nil
}

func validateGenesis(o options, genesis Block) error {
	if genesis.PrevHash != GenesisPrevHash {
		return &ValidationError{Position: 0, Reason: ReasonInvalidGenesis, Expected: GenesisPrevHash, Got: genesis.PrevHash}
	}
	if o.strictIndex && genesis.Index != 0 {
		return &ValidationError{Position: 0, Reason: ReasonIndexMismatch, Expected: "0", Got: strconv.Itoa(genesis.Index)}
	}
	return validateHash(o, 0, genesis)
}

// validateBlock checks current, found at the given position, against its predecessor.
func validateBlock(o options, position int, current, previous Block) error {
	if err := validateHash(o, position, current); err != nil {
		return err
	}

	if current.PrevHash != previous.Hash {
		return &ValidationError{Position: position, Reason: ReasonBrokenLink, Expected: previous.Hash, Got: current.PrevHash}
	}

	if o.strictIndex && current.Index != previous.Index+1 {
		return &ValidationError{
			Position: position,
			Reason:   ReasonIndexMismatch,
			Expected: strconv.Itoa(previous.Index + 1),
			Got:      strconv.Itoa(current.Index),
		}
	}
	return nil
}

func validateHash(o options, position int, b Block) error {
	expected, err := digest(o.hashFactory, b.Index, b.Timestamp, b.Payload, b.PrevHash)
	if err != nil {
		return &ValidationError{Position: position, Reason: ReasonDigestMismatch, Expected: "serializable payload", Got: string(b.Payload)}
	}
	if b.Hash != expected {
		return &ValidationError{Position: position, Reason: ReasonDigestMismatch, Expected: expected, Got: b.Hash}
	}
	return nil
}

// MarshalJSON encodes the chain as an ordered array of blocks.
func (bc *Blockchain) MarshalJSON() ([]byte, error) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return json.Marshal(bc.blocks)
}

// UnmarshalJSON replaces the chain with the decoded blocks. The result is not
// validated: call Verify.
func (bc *Blockchain) UnmarshalJSON(data []byte) error {
	var blocks []Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return fmt.Errorf("decode blockchain: %w", err)
	}

	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.opts = bc.options()
	bc.blocks = blocks
	return nil
}

// options fills in defaults for a zero Blockchain, e.g. one filled by json.Unmarshal.
func (bc *Blockchain) options() options {
	return bc.opts.withDefaults()
}

func cloneBlocks(blocks []Block) []Block {
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = b.clone()
	}
	return out
}
