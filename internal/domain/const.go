package domain

const (
	// Blockchain constants
	ETHEREUM_ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"

	// DEFAULT_DEPLOY_BLOCK is the block the asset contracts were deployed at.
	// Deploy blocks can only be found manually from explorers, e.g.
	// https://mumbai.polygonscan.com/token/0xEE7ff88E92F2207dBC19d89C1C9eD3F385513b35
	DEFAULT_DEPLOY_BLOCK uint64 = 0x1E5A890

	// DEFAULT_BACKFILL_CHUNK_SIZE is the eth_getLogs page size recommended by
	// Alchemy for Polygon: https://docs.alchemy.com/reference/eth-getlogs-polygon
	DEFAULT_BACKFILL_CHUNK_SIZE uint64 = 2000
)
