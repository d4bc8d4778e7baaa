package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Totem-gdn/totem-asset-indexer/internal/adapter"
	"github.com/Totem-gdn/totem-asset-indexer/internal/domain"
)

// Event signatures
var (
	// ERC721 Transfer(address indexed from, address indexed to, uint256 indexed tokenId) - 4 topics
	// The same signature with 3 topics is an ERC20 Transfer and is skipped
	transferEventSignature = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

	// AssetLegacyRecord(address indexed player, uint256 assetId, uint256 gameId, uint256 recordId)
	// emitted by the assets-legacy contracts whenever a game records usage of an asset
	legacyRecordEventSignature = crypto.Keccak256Hash([]byte("AssetLegacyRecord(address,uint256,uint256,uint256)"))
)

// balanceOf(uint256) on the assets-legacy contract returns the total usage
// record count for a token
const legacyBalanceOfABI = `[{"constant":true,"inputs":[{"name":"assetId","type":"uint256"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}]`

// LegacyRecordEvent is a parsed AssetLegacyRecord log
type LegacyRecordEvent struct {
	AssetType domain.AssetType
	Player    string
	TokenID   string
	GameID    string
	RecordID  string
	TxHash    string
	LogIndex  uint
}

// TransferHandler is called for each transfer event pushed by a live subscription
type TransferHandler func(event *domain.TransferEvent) error

// LegacyRecordHandler is called for each usage record pushed by a live subscription
type LegacyRecordHandler func(event *LegacyRecordEvent) error

// EthereumClient defines the read-only JSON-RPC abstraction the pipeline
// depends on: current height, bounded log queries, live log subscriptions and
// the legacy usage counter read
//
//go:generate mockgen -source=client.go -destination=../../mocks/ethereum.go -package=mocks -mock_names=EthereumClient=MockEthereumClient
type EthereumClient interface {
	// CurrentHeight returns the current block height. Fails with
	// domain.ErrChainUnavailable on RPC failure; the caller retries with backoff.
	CurrentHeight(ctx context.Context) (uint64, error)

	// FilterTransfers queries Transfer logs for a contract in [fromBlock, toBlock].
	// Events are returned in provider order; callers sort before use. Fails
	// with domain.ErrRangeTooLarge when the provider rejects the span, in
	// which case the caller halves the chunk and retries.
	FilterTransfers(ctx context.Context, assetType domain.AssetType, contract string, fromBlock, toBlock uint64) ([]domain.TransferEvent, error)

	// SubscribeTransfers subscribes to a contract's Transfer topic and blocks,
	// invoking handler per event, until ctx is canceled or the transport
	// drops. A transport drop returns an error; the caller re-establishes the
	// subscription after a fresh backfill.
	SubscribeTransfers(ctx context.Context, assetType domain.AssetType, contract string, handler TransferHandler) error

	// SubscribeLegacyRecords subscribes to a legacy contract's
	// AssetLegacyRecord topic with the same lifecycle as SubscribeTransfers
	SubscribeLegacyRecords(ctx context.Context, assetType domain.AssetType, contract string, handler LegacyRecordHandler) error

	// LegacyUsageCount reads the authoritative usage counter for a token from
	// the assets-legacy contract
	LegacyUsageCount(ctx context.Context, contract string, tokenID string) (uint64, error)

	// Close closes the connection
	Close()
}

type ethereumClient struct {
	rpc   adapter.EthClient
	ws    adapter.EthClient
	clock adapter.Clock
}

// NewClient creates a new Ethereum client on top of two dialed connections:
// an HTTP connection for height, log and contract queries and a websocket
// connection for live log subscriptions
func NewClient(rpc, ws adapter.EthClient, clock adapter.Clock) EthereumClient {
	return &ethereumClient{rpc: rpc, ws: ws, clock: clock}
}

// CurrentHeight returns the current block height
func (c *ethereumClient) CurrentHeight(ctx context.Context) (uint64, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	header, err := c.rpc.HeaderByNumber(timeoutCtx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get latest block: %v", domain.ErrChainUnavailable, err)
	}

	return header.Number.Uint64(), nil
}

// FilterTransfers queries Transfer logs for a contract in a bounded block range
func (c *ethereumClient) FilterTransfers(ctx context.Context, assetType domain.AssetType, contract string, fromBlock, toBlock uint64) ([]domain.TransferEvent, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{common.HexToAddress(contract)},
		Topics:    [][]common.Hash{{transferEventSignature}},
	}

	logs, err := c.rpc.FilterLogs(timeoutCtx, query)
	if err != nil {
		if isTooManyResultsError(err) {
			return nil, fmt.Errorf("%w: range [%d, %d]: %v", domain.ErrRangeTooLarge, fromBlock, toBlock, err)
		}
		return nil, fmt.Errorf("%w: failed to filter logs: %v", domain.ErrChainUnavailable, err)
	}

	events := make([]domain.TransferEvent, 0, len(logs))
	for _, vLog := range logs {
		event := parseTransferLog(assetType, vLog)
		if event == nil {
			continue
		}
		events = append(events, *event)
	}

	return events, nil
}

// LegacyUsageCount reads balanceOf(tokenID) from the assets-legacy contract
func (c *ethereumClient) LegacyUsageCount(ctx context.Context, contract string, tokenID string) (uint64, error) {
	balanceABI, err := abi.JSON(strings.NewReader(legacyBalanceOfABI))
	if err != nil {
		return 0, fmt.Errorf("failed to parse ABI: %w", err)
	}

	assetID, ok := new(big.Int).SetString(tokenID, 10)
	if !ok {
		return 0, fmt.Errorf("invalid token id: %s", tokenID)
	}

	data, err := balanceABI.Pack("balanceOf", assetID)
	if err != nil {
		return 0, fmt.Errorf("failed to pack data: %w", err)
	}

	contractAddr := common.HexToAddress(contract)
	result, err := c.rpc.CallContract(ctx, ethereum.CallMsg{
		To:   &contractAddr,
		Data: data,
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to call contract: %v", domain.ErrChainUnavailable, err)
	}

	var balance *big.Int
	if err := balanceABI.UnpackIntoInterface(&balance, "balanceOf", result); err != nil {
		return 0, fmt.Errorf("failed to unpack result: %w", err)
	}

	return balance.Uint64(), nil
}

// Close closes both connections
func (c *ethereumClient) Close() {
	if c.rpc != nil {
		c.rpc.Close()
	}
	if c.ws != nil && c.ws != c.rpc {
		c.ws.Close()
	}
}

// isTooManyResultsError checks if the error is a provider span rejection
func isTooManyResultsError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	// Check for common "too many results" error messages
	return strings.Contains(errStr, "query returned more than 10000 results") ||
		strings.Contains(errStr, "query timeout exceeded") ||
		strings.Contains(errStr, "too many results") ||
		strings.Contains(errStr, "exceeded maximum") ||
		strings.Contains(errStr, "block range")
}

// parseTransferLog parses an ERC721 Transfer log into a normalized event.
// Returns nil for logs this pipeline doesn't care about (ERC20-style 3-topic
// transfers, removed logs).
func parseTransferLog(assetType domain.AssetType, vLog types.Log) *domain.TransferEvent {
	if vLog.Removed {
		return nil
	}
	// ERC721 Transfer carries the tokenId as the fourth topic
	if len(vLog.Topics) != 4 || vLog.Topics[0] != transferEventSignature {
		return nil
	}

	return &domain.TransferEvent{
		AssetType:   assetType,
		From:        common.BytesToAddress(vLog.Topics[1].Bytes()).Hex(),
		To:          common.BytesToAddress(vLog.Topics[2].Bytes()).Hex(),
		TokenID:     new(big.Int).SetBytes(vLog.Topics[3].Bytes()).String(),
		TxHash:      vLog.TxHash.Hex(),
		BlockNumber: vLog.BlockNumber,
		LogIndex:    vLog.Index,
	}
}

// parseLegacyRecordLog parses an AssetLegacyRecord log. The player address is
// indexed; assetId, gameId and recordId arrive in the data section.
func parseLegacyRecordLog(assetType domain.AssetType, vLog types.Log) *LegacyRecordEvent {
	if vLog.Removed {
		return nil
	}
	if len(vLog.Topics) < 2 || vLog.Topics[0] != legacyRecordEventSignature {
		return nil
	}
	if len(vLog.Data) < 96 {
		return nil
	}

	return &LegacyRecordEvent{
		AssetType: assetType,
		Player:    common.BytesToAddress(vLog.Topics[1].Bytes()).Hex(),
		TokenID:   new(big.Int).SetBytes(vLog.Data[0:32]).String(),
		GameID:    new(big.Int).SetBytes(vLog.Data[32:64]).String(),
		RecordID:  new(big.Int).SetBytes(vLog.Data[64:96]).String(),
		TxHash:    vLog.TxHash.Hex(),
		LogIndex:  vLog.Index,
	}
}
