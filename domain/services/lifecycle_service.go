package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	log "github.com/sirupsen/logrus"

	"dicehouse/domain/entities"
	"dicehouse/domain/events"
	"dicehouse/domain/interfaces"
	"dicehouse/domain/odds"
)

// LifecycleParams configures a controller. Edge and fraction are WAD-scaled;
// heights are block counts.
type LifecycleParams struct {
	Owner            common.Address
	HouseEdge        *uint256.Int
	KellyFraction    *uint256.Int
	Lookback         uint64
	ExpiryWindow     uint64
	MaxSweepPerPlace int
}

// LifecycleController orchestrates the bet state machine: placement with the
// risk bound, resolution against future block hashes, expiry sweeping, and
// delegated-session placement. It exclusively owns the ledger and the pending
// queue, and serializes every operation under one mutex to reproduce the
// platform's run-to-completion execution model.
//
// Ordering discipline: ledger state is mutated before any external fund
// movement, so a re-entrant call observes the bet already terminal and fails
// with ErrNotPending. If an external transfer then fails, the mutation is
// rolled back and the whole operation fails atomically.
type LifecycleController struct {
	mu sync.Mutex

	owner            common.Address
	houseEdge        *uint256.Int
	kellyFraction    *uint256.Int
	lookback         uint64
	expiryWindow     uint64
	maxSweepPerPlace int

	ledger  *BetLedger
	chain   interfaces.ChainSource
	vault   interfaces.Vault
	custody interfaces.Custody
	pub     interfaces.EventPublisher

	// Stakes debited from players sit in the controller's float until the
	// bet settles. Counts toward the bankroll for the risk bound.
	float *uint256.Int

	sessions    map[common.Address]*entities.Session // player -> session
	sessionKeys map[common.Address]common.Address    // session key -> player
}

// NewLifecycleController wires a controller over its collaborators.
func NewLifecycleController(
	params LifecycleParams,
	chain interfaces.ChainSource,
	vault interfaces.Vault,
	custody interfaces.Custody,
	pub interfaces.EventPublisher,
) (*LifecycleController, error) {
	if params.HouseEdge == nil || !params.HouseEdge.Lt(odds.WAD) {
		return nil, fmt.Errorf("house edge must be below 100%%")
	}
	if params.KellyFraction == nil || params.KellyFraction.IsZero() || params.KellyFraction.Gt(odds.WAD) {
		return nil, fmt.Errorf("kelly fraction must be in (0, 1]")
	}
	if params.Lookback == 0 || params.ExpiryWindow == 0 {
		return nil, fmt.Errorf("lookback and expiry window must be positive")
	}

	return &LifecycleController{
		owner:            params.Owner,
		houseEdge:        params.HouseEdge.Clone(),
		kellyFraction:    params.KellyFraction.Clone(),
		lookback:         params.Lookback,
		expiryWindow:     params.ExpiryWindow,
		maxSweepPerPlace: params.MaxSweepPerPlace,
		ledger:           NewBetLedger(),
		chain:            chain,
		vault:            vault,
		custody:          custody,
		pub:              pub,
		float:            uint256.NewInt(0),
		sessions:         make(map[common.Address]*entities.Session),
		sessionKeys:      make(map[common.Address]common.Address),
	}, nil
}

// Place validates and records a new bet for the player, taking custody of the
// stake. Up to MaxSweepPerPlace expired bets are swept first so cleanup cost
// amortizes across placements. Returns the new bet id; failed placements
// never consume an id.
func (c *LifecycleController) Place(ctx context.Context, player common.Address, amount, targetOdds *uint256.Int) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.sweepLocked(ctx, c.maxSweepPerPlace); err != nil {
		// Sweeping is a courtesy to the bankroll; its failure must not block
		// the placement itself.
		log.WithError(err).Warn("Opportunistic expiry sweep failed")
	}

	return c.placeLocked(ctx, player, amount, targetOdds)
}

// Claim resolves a pending bet on behalf of its player. Any authorized caller
// may trigger it; the payout routes to the bet's player regardless. A second
// claim on the same bet fails with ErrNotPending — no double payment.
func (c *LifecycleController) Claim(ctx context.Context, id uint64, caller common.Address) (*entities.BetResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bet, won, payout, err := c.resolveLocked(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	if err := c.applyResolutionLocked(ctx, bet, won, payout); err != nil {
		return nil, err
	}

	return &entities.BetResult{BetID: bet.ID, Player: bet.Player, Won: won, Payout: payout}, nil
}

// ComputeResult previews a pending bet's verdict without mutating state.
// Once the resolving hash has lapsed beyond the lookback horizon it reports a
// deterministic zero-payout loss instead of failing, so callers always get a
// terminal-looking preview for sweepable bets.
func (c *LifecycleController) ComputeResult(ctx context.Context, id uint64) (*entities.BetResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bet := c.ledger.Get(id)
	if bet == nil {
		return nil, entities.ErrBetNotFound
	}
	if !bet.IsPending() {
		return nil, entities.ErrNotPending
	}

	height, err := c.chain.CurrentHeight(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain height: %w", err)
	}
	if height <= bet.ResolutionHeight() {
		return nil, entities.ErrTooEarly
	}
	if height > bet.ResolutionHeight()+c.lookback {
		return &entities.BetResult{BetID: bet.ID, Player: bet.Player, Won: false, Payout: uint256.NewInt(0)}, nil
	}

	won, payout, err := c.verdictLocked(ctx, bet)
	if err != nil {
		return nil, err
	}
	return &entities.BetResult{BetID: bet.ID, Player: bet.Player, Won: won, Payout: payout}, nil
}

// SweepExpired forfeits up to maxCount expired pending bets to the bankroll.
// Callable by anyone: it only benefits the bankroll and cannot touch a bet
// still inside its claim window. Returns the number swept.
func (c *LifecycleController) SweepExpired(ctx context.Context, maxCount int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sweepLocked(ctx, maxCount)
}

// PlaceAndClaim atomically resolves the caller's own pending bet and places a
// new one, for sequential strategies that chain bets in one operation. Both
// halves carry the same validation as the standalone operations; every
// validation is checked before any state mutates.
func (c *LifecycleController) PlaceAndClaim(ctx context.Context, caller common.Address, amount, targetOdds *uint256.Int, previousID uint64) (uint64, *entities.BetResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Validate the new bet's inputs up front.
	if err := odds.ValidateAmount(amount); err != nil {
		return 0, nil, err
	}
	if err := odds.ValidateOdds(targetOdds); err != nil {
		return 0, nil, err
	}

	prev, won, payout, err := c.resolveLocked(ctx, previousID, caller)
	if err != nil {
		return 0, nil, err
	}
	// Chaining settles the caller's own bet; sessions go through Claim.
	if prev.Player != caller {
		return 0, nil, entities.ErrUnauthorized
	}

	// Project the post-settlement bankroll and the caller's balance so the
	// new bet's risk and funds checks pass or fail before anything commits.
	bankroll, err := c.bankrollLocked(ctx)
	if err != nil {
		return 0, nil, err
	}
	if won {
		// The vault funds the profit and the float releases the stake, both
		// to the player: the bankroll shrinks by the full payout.
		if bankroll.Lt(payout) {
			bankroll.Clear()
		} else {
			bankroll.Sub(bankroll, payout)
		}
	}
	max := odds.FractionalMaxBet(bankroll, targetOdds, c.houseEdge, c.kellyFraction)
	if amount.Gt(max) {
		return 0, nil, fmt.Errorf("%w: amount %s, max %s", entities.ErrExceedsMaxBet, amount.Dec(), max.Dec())
	}

	balance, err := c.custody.Balance(ctx, caller)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read player balance: %w", err)
	}
	available := balance.Clone()
	if won {
		available.Add(available, payout)
	}
	if available.Lt(amount) {
		return 0, nil, entities.ErrInsufficientFunds
	}

	if err := c.applyResolutionLocked(ctx, prev, won, payout); err != nil {
		return 0, nil, err
	}

	newID, err := c.placeLocked(ctx, caller, amount, targetOdds)
	if err != nil {
		// Pre-validation covers every rejection reason, so this is an
		// external custody fault; the settled claim stands.
		return 0, nil, fmt.Errorf("chained placement failed after claim settled: %w", err)
	}

	result := &entities.BetResult{BetID: prev.ID, Player: prev.Player, Won: won, Payout: payout}
	return newID, result, nil
}

// Bet returns a copy of the bet record, or nil if the id was never assigned.
func (c *LifecycleController) Bet(id uint64) *entities.Bet {
	c.mu.Lock()
	defer c.mu.Unlock()

	bet := c.ledger.Get(id)
	if bet == nil {
		return nil
	}
	cp := *bet
	cp.Amount = bet.Amount.Clone()
	cp.TargetOdds = bet.TargetOdds.Clone()
	return &cp
}

// PendingCount returns the number of bets awaiting resolution or expiry.
func (c *LifecycleController) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ledger.PendingCount()
}

// MaxBetNow returns the current risk-bounded maximum wager for the odds.
func (c *LifecycleController) MaxBetNow(ctx context.Context, targetOdds *uint256.Int) (*uint256.Int, error) {
	if err := odds.ValidateOdds(targetOdds); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	bankroll, err := c.bankrollLocked(ctx)
	if err != nil {
		return nil, err
	}
	return odds.FractionalMaxBet(bankroll, targetOdds, c.houseEdge, c.kellyFraction), nil
}

// HouseEdge returns the current WAD-scaled house edge.
func (c *LifecycleController) HouseEdge() *uint256.Int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.houseEdge.Clone()
}

// SetHouseEdge updates the house edge. Owner only.
func (c *LifecycleController) SetHouseEdge(ctx context.Context, caller common.Address, newEdge *uint256.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isAuthorizedCaller(OpSetParams, caller, nil, 0) {
		return entities.ErrUnauthorized
	}
	if newEdge == nil || !newEdge.Lt(odds.WAD) {
		return fmt.Errorf("house edge must be below 100%%")
	}

	old := c.houseEdge
	c.houseEdge = newEdge.Clone()

	log.WithFields(log.Fields{
		"oldEdge": old.Dec(),
		"newEdge": newEdge.Dec(),
	}).Info("House edge updated")

	c.publish(ctx, events.HouseEdgeChangedEvent{OldEdge: old, NewEdge: newEdge.Clone()})
	return nil
}

// SetKellyFraction updates the fractional-Kelly conservatism factor. Owner only.
func (c *LifecycleController) SetKellyFraction(ctx context.Context, caller common.Address, fraction *uint256.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isAuthorizedCaller(OpSetParams, caller, nil, 0) {
		return entities.ErrUnauthorized
	}
	if fraction == nil || fraction.IsZero() || fraction.Gt(odds.WAD) {
		return fmt.Errorf("kelly fraction must be in (0, 1]")
	}

	c.kellyFraction = fraction.Clone()
	return nil
}

// placeLocked runs the full placement pipeline. All rejection paths precede
// the custody debit and the ledger insert, so a failed placement moves no
// funds and consumes no id.
func (c *LifecycleController) placeLocked(ctx context.Context, player common.Address, amount, targetOdds *uint256.Int) (uint64, error) {
	if err := odds.ValidateAmount(amount); err != nil {
		return 0, err
	}
	if err := odds.ValidateOdds(targetOdds); err != nil {
		return 0, err
	}

	height, err := c.chain.CurrentHeight(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read chain height: %w", err)
	}

	bankroll, err := c.bankrollLocked(ctx)
	if err != nil {
		return 0, err
	}
	max := odds.FractionalMaxBet(bankroll, targetOdds, c.houseEdge, c.kellyFraction)
	if amount.Gt(max) {
		return 0, fmt.Errorf("%w: amount %s, max %s", entities.ErrExceedsMaxBet, amount.Dec(), max.Dec())
	}

	if err := c.custody.Debit(ctx, player, amount); err != nil {
		return 0, fmt.Errorf("failed to take stake custody: %w", err)
	}

	bet := &entities.Bet{
		Player:          player,
		Amount:          amount.Clone(),
		TargetOdds:      targetOdds.Clone(),
		PlacementHeight: height,
		Status:          entities.BetStatusPending,
		PlacedAt:        time.Now().UTC(),
	}
	id := c.ledger.Insert(bet)
	c.float.Add(c.float, amount)

	log.WithFields(log.Fields{
		"betId":  id,
		"player": player.Hex(),
		"amount": amount.Dec(),
		"odds":   targetOdds.Dec(),
		"height": height,
	}).Info("Bet placed")

	c.publish(ctx, events.BetPlacedEvent{
		BetID:           id,
		Player:          player,
		Amount:          amount.Clone(),
		TargetOdds:      targetOdds.Clone(),
		PlacementHeight: height,
	})

	return id, nil
}

// resolveLocked computes a pending bet's verdict without mutating anything:
// existence, status, authorization, and the height window are checked, then
// the randomness is derived.
func (c *LifecycleController) resolveLocked(ctx context.Context, id uint64, caller common.Address) (*entities.Bet, bool, *uint256.Int, error) {
	bet := c.ledger.Get(id)
	if bet == nil {
		return nil, false, nil, entities.ErrBetNotFound
	}
	if !bet.IsPending() {
		return nil, false, nil, entities.ErrNotPending
	}

	height, err := c.chain.CurrentHeight(ctx)
	if err != nil {
		return nil, false, nil, fmt.Errorf("failed to read chain height: %w", err)
	}
	if !c.isAuthorizedCaller(OpClaim, caller, bet, height) {
		return nil, false, nil, entities.ErrUnauthorized
	}
	if height <= bet.ResolutionHeight() {
		return nil, false, nil, entities.ErrTooEarly
	}
	if height > bet.ResolutionHeight()+c.lookback {
		return nil, false, nil, entities.ErrHashExpired
	}

	won, payout, err := c.verdictLocked(ctx, bet)
	if err != nil {
		return nil, false, nil, err
	}
	return bet, won, payout, nil
}

// verdictLocked derives the randomness seed from the resolving block hash and
// returns the win/lose verdict with the would-be payout.
func (c *LifecycleController) verdictLocked(ctx context.Context, bet *entities.Bet) (bool, *uint256.Int, error) {
	hash, err := c.chain.BlockHash(ctx, bet.ResolutionHeight())
	if err != nil {
		return false, nil, fmt.Errorf("failed to read block hash: %w", err)
	}
	if hash == (common.Hash{}) {
		return false, nil, entities.ErrHashUnavailable
	}

	seed := odds.RandomnessSeed(bet.ID, hash)
	if !odds.IsWinner(seed, bet.TargetOdds, c.houseEdge) {
		return false, uint256.NewInt(0), nil
	}
	return true, odds.Payout(bet.Amount, bet.TargetOdds), nil
}

// applyResolutionLocked commits a verdict: status and queue first, funds
// second. A transfer failure rolls the transition back so the bet stays
// claimable and no partial state survives.
func (c *LifecycleController) applyResolutionLocked(ctx context.Context, bet *entities.Bet, won bool, payout *uint256.Int) error {
	rollback := func() {
		bet.Status = entities.BetStatusPending
		c.ledger.requeue(bet.ID)
		c.float.Add(c.float, bet.Amount)
	}

	if won {
		bet.Status = entities.BetStatusClaimed
	} else {
		bet.Status = entities.BetStatusLost
	}
	c.ledger.RemoveFromPending(bet.ID)
	c.float.Sub(c.float, bet.Amount)

	if won {
		profit := new(uint256.Int).Sub(payout, bet.Amount)
		if !profit.IsZero() {
			if err := c.vault.WithdrawForPayout(ctx, profit); err != nil {
				rollback()
				return fmt.Errorf("failed to withdraw payout from bankroll: %w", err)
			}
		}
		if err := c.custody.Credit(ctx, bet.Player, payout); err != nil {
			if !profit.IsZero() {
				if depErr := c.vault.Deposit(ctx, profit); depErr != nil {
					log.WithError(depErr).WithField("betId", bet.ID).Error("Failed to return withdrawn profit to vault")
				}
			}
			rollback()
			return fmt.Errorf("failed to transfer payout: %w", err)
		}
	} else {
		if err := c.vault.Deposit(ctx, bet.Amount); err != nil {
			rollback()
			return fmt.Errorf("failed to forward stake to bankroll: %w", err)
		}
	}

	log.WithFields(log.Fields{
		"betId":  bet.ID,
		"player": bet.Player.Hex(),
		"won":    won,
		"payout": payout.Dec(),
	}).Info("Bet resolved")

	c.publish(ctx, events.BetResolvedEvent{BetID: bet.ID, Player: bet.Player, Won: won, Payout: payout.Clone()})
	if won {
		c.publish(ctx, events.BetClaimedEvent{BetID: bet.ID, Player: bet.Player, Payout: payout.Clone()})
	}
	return nil
}

// sweepLocked scans the pending queue and forfeits expired bets, at most
// maxCount of them. Removal swaps the last entry into the current slot, so
// the slot is re-examined before advancing.
func (c *LifecycleController) sweepLocked(ctx context.Context, maxCount int) (int, error) {
	if maxCount <= 0 || c.ledger.PendingCount() == 0 {
		return 0, nil
	}

	height, err := c.chain.CurrentHeight(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read chain height: %w", err)
	}

	swept := 0
	i := 0
	for i < c.ledger.PendingCount() && swept < maxCount {
		bet := c.ledger.Get(c.ledger.PendingAt(i))
		if !bet.ExpiredAt(height, c.expiryWindow) {
			i++
			continue
		}

		bet.Status = entities.BetStatusExpired
		c.ledger.RemoveFromPending(bet.ID)
		c.float.Sub(c.float, bet.Amount)

		if err := c.vault.Deposit(ctx, bet.Amount); err != nil {
			bet.Status = entities.BetStatusPending
			c.ledger.requeue(bet.ID)
			c.float.Add(c.float, bet.Amount)
			return swept, fmt.Errorf("failed to forfeit expired stake: %w", err)
		}
		swept++

		log.WithFields(log.Fields{
			"betId":  bet.ID,
			"player": bet.Player.Hex(),
			"amount": bet.Amount.Dec(),
			"height": height,
		}).Info("Bet expired and swept")

		c.publish(ctx, events.BetExpiredEvent{
			BetID:   bet.ID,
			Player:  bet.Player,
			Amount:  bet.Amount.Clone(),
			SweptAt: height,
		})
	}

	return swept, nil
}

// bankrollLocked returns the point-in-time bankroll backing the risk bound:
// vault assets plus the stake float held by the controller.
func (c *LifecycleController) bankrollLocked(ctx context.Context) (*uint256.Int, error) {
	assets, err := c.vault.TotalAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault assets: %w", err)
	}
	return new(uint256.Int).Add(assets, c.float), nil
}

// publish delivers one committed transition to observers. Failures are logged
// and swallowed: observers are downstream of the source of truth.
func (c *LifecycleController) publish(ctx context.Context, event events.Event) {
	if c.pub == nil {
		return
	}
	if err := c.pub.Publish(ctx, event); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"error":     err,
		}).Error("Failed to publish event")
	}
}
