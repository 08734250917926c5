package infrastructure

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// EthChainSource reads heights and block hashes from an Ethereum-compatible
// RPC endpoint. Hashes outside the node's lookback horizon report the zero
// sentinel, matching on-chain blockhash semantics.
type EthChainSource struct {
	client   *ethclient.Client
	lookback uint64
}

// NewEthChainSource dials the RPC endpoint.
func NewEthChainSource(ctx context.Context, rpcURL string, lookback uint64) (*EthChainSource, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial chain RPC: %w", err)
	}
	return &EthChainSource{client: client, lookback: lookback}, nil
}

// CurrentHeight returns the latest block number.
func (s *EthChainSource) CurrentHeight(ctx context.Context) (uint64, error) {
	height, err := s.client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read block number: %w", err)
	}
	return height, nil
}

// BlockHash returns the hash of the block at height, or the zero hash when
// the block is unmined or older than the lookback horizon.
func (s *EthChainSource) BlockHash(ctx context.Context, height uint64) (common.Hash, error) {
	current, err := s.CurrentHeight(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	if height >= current || height+s.lookback < current {
		return common.Hash{}, nil
	}

	header, err := s.client.HeaderByNumber(ctx, new(big.Int).SetUint64(height))
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to read header at height %d: %w", height, err)
	}
	return header.Hash(), nil
}

// Close releases the underlying RPC connection.
func (s *EthChainSource) Close() {
	s.client.Close()
}
