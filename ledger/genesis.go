package ledger

const (
	// GenesisPayload is the payload of every genesis block.
	GenesisPayload = "Genesis Block"
	// GenesisPrevHash stands in for the missing predecessor of the genesis block.
	GenesisPrevHash = "0"
)

// NewGenesisBlock creates the first block of a chain. Only the timestamp varies between
// chains, so two genesis blocks created at different times have different hashes.
func NewGenesisBlock(timestamp string) (Block, error) {
	return newGenesisBlock(defaultHashFactory, timestamp)
}

func newGenesisBlock(hf HashFactory, timestamp string) (Block, error) {
	return newBlock(hf, 0, timestamp, GenesisPayload, GenesisPrevHash)
}
