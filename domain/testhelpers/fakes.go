// Package testhelpers provides deterministic in-memory collaborators for
// exercising the lifecycle controller: a manually advanced chain, a memory
// vault and custody, and an event-capturing publisher.
package testhelpers

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"dicehouse/domain/entities"
	"dicehouse/domain/events"
)

// SimChain is a ChainSource under full test control. Heights advance only via
// Advance; hashes default to a deterministic function of the height and can
// be pinned per height or forced to the zero sentinel.
type SimChain struct {
	mu       sync.Mutex
	height   uint64
	lookback uint64
	pinned   map[uint64]common.Hash
	missing  map[uint64]bool
}

// NewSimChain starts a chain at the given height with the given lookback
// horizon for historical hashes.
func NewSimChain(height, lookback uint64) *SimChain {
	return &SimChain{
		height:   height,
		lookback: lookback,
		pinned:   make(map[uint64]common.Hash),
		missing:  make(map[uint64]bool),
	}
}

// Advance mines n blocks.
func (s *SimChain) Advance(n uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.height += n
}

// PinHash fixes the hash returned for a height.
func (s *SimChain) PinHash(height uint64, hash common.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pinned[height] = hash
}

// MarkMissing makes a height report the zero hash even inside the horizon,
// reproducing the boundary case where a hash is unrecoverable.
func (s *SimChain) MarkMissing(height uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missing[height] = true
}

func (s *SimChain) CurrentHeight(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.height, nil
}

func (s *SimChain) BlockHash(ctx context.Context, height uint64) (common.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if height >= s.height || s.missing[height] {
		return common.Hash{}, nil
	}
	if height+s.lookback < s.height {
		return common.Hash{}, nil
	}
	if h, ok := s.pinned[height]; ok {
		return h, nil
	}
	return crypto.Keccak256Hash([]byte(fmt.Sprintf("simchain-block-%d", height))), nil
}

// MemoryVault is a Vault backed by a single balance counter.
type MemoryVault struct {
	mu     sync.Mutex
	assets *uint256.Int

	// FailNextWithdraw and FailNextDeposit force the next call to fail, for
	// exercising the controller's rollback paths.
	FailNextWithdraw bool
	FailNextDeposit  bool
}

// NewMemoryVault creates a vault holding the given assets.
func NewMemoryVault(assets *uint256.Int) *MemoryVault {
	return &MemoryVault{assets: assets.Clone()}
}

func (v *MemoryVault) TotalAssets(ctx context.Context) (*uint256.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.assets.Clone(), nil
}

func (v *MemoryVault) WithdrawForPayout(ctx context.Context, amount *uint256.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.FailNextWithdraw {
		v.FailNextWithdraw = false
		return fmt.Errorf("vault: forced withdraw failure")
	}
	if v.assets.Lt(amount) {
		return entities.ErrInsufficientFunds
	}
	v.assets.Sub(v.assets, amount)
	return nil
}

func (v *MemoryVault) Deposit(ctx context.Context, amount *uint256.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.FailNextDeposit {
		v.FailNextDeposit = false
		return fmt.Errorf("vault: forced deposit failure")
	}
	v.assets.Add(v.assets, amount)
	return nil
}

// MemoryCustody is a Custody over an in-memory balance map.
type MemoryCustody struct {
	mu       sync.Mutex
	balances map[common.Address]*uint256.Int
}

// NewMemoryCustody creates an empty custody ledger.
func NewMemoryCustody() *MemoryCustody {
	return &MemoryCustody{balances: make(map[common.Address]*uint256.Int)}
}

// Fund credits a player outside the Custody interface, for test setup.
func (c *MemoryCustody) Fund(player common.Address, amount *uint256.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credit(player, amount)
}

func (c *MemoryCustody) Debit(ctx context.Context, player common.Address, amount *uint256.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	balance, ok := c.balances[player]
	if !ok || balance.Lt(amount) {
		return entities.ErrInsufficientFunds
	}
	balance.Sub(balance, amount)
	return nil
}

func (c *MemoryCustody) Credit(ctx context.Context, player common.Address, amount *uint256.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credit(player, amount)
	return nil
}

func (c *MemoryCustody) Balance(ctx context.Context, player common.Address) (*uint256.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if balance, ok := c.balances[player]; ok {
		return balance.Clone(), nil
	}
	return uint256.NewInt(0), nil
}

func (c *MemoryCustody) credit(player common.Address, amount *uint256.Int) {
	if balance, ok := c.balances[player]; ok {
		balance.Add(balance, amount)
		return
	}
	c.balances[player] = amount.Clone()
}

// CapturingPublisher records every published event in order.
type CapturingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

// NewCapturingPublisher creates an empty capture.
func NewCapturingPublisher() *CapturingPublisher {
	return &CapturingPublisher{}
}

func (p *CapturingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (p *CapturingPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Event, len(p.events))
	copy(out, p.events)
	return out
}

// OfType returns published events of one type, in order.
func (p *CapturingPublisher) OfType(t events.EventType) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}
