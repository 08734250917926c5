package services

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	log "github.com/sirupsen/logrus"

	"dicehouse/domain/entities"
	"dicehouse/domain/events"
	"dicehouse/domain/odds"
)

// RegisterSession activates a delegated betting authorization. The player's
// signature over (player ‖ sessionKey ‖ expiryHeight ‖ maxBetPerGame) proves
// consent; a player has at most one active session, and registering again
// replaces it.
func (c *LifecycleController) RegisterSession(ctx context.Context, player, sessionKey common.Address, expiryHeight uint64, maxBetPerGame *uint256.Int, sig []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sessionKey == (common.Address{}) || sessionKey == player {
		return entities.ErrInvalidSignature
	}
	if err := odds.ValidateAmount(maxBetPerGame); err != nil {
		return err
	}
	if err := entities.VerifySessionSignature(player, sessionKey, expiryHeight, maxBetPerGame, sig); err != nil {
		return err
	}

	height, err := c.chain.CurrentHeight(ctx)
	if err != nil {
		return fmt.Errorf("failed to read chain height: %w", err)
	}
	if expiryHeight <= height {
		return entities.ErrSessionExpired
	}

	if old, ok := c.sessions[player]; ok {
		delete(c.sessionKeys, old.SessionKey)
	}
	c.sessions[player] = &entities.Session{
		Player:           player,
		SessionKey:       sessionKey,
		ExpiryHeight:     expiryHeight,
		MaxBetPerGame:    maxBetPerGame.Clone(),
		RegisteredHeight: height,
	}
	c.sessionKeys[sessionKey] = player

	log.WithFields(log.Fields{
		"player":     player.Hex(),
		"sessionKey": sessionKey.Hex(),
		"expiry":     expiryHeight,
	}).Info("Session registered")

	c.publish(ctx, events.SessionRegisteredEvent{Player: player, SessionKey: sessionKey, ExpiryHeight: expiryHeight})
	return nil
}

// RevokeSession deactivates the caller's own session.
func (c *LifecycleController) RevokeSession(ctx context.Context, caller common.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isAuthorizedCaller(OpRevokeSession, caller, nil, 0) {
		return entities.ErrUnauthorized
	}

	session := c.sessions[caller]
	delete(c.sessionKeys, session.SessionKey)
	delete(c.sessions, caller)

	c.publish(ctx, events.SessionRevokedEvent{Player: caller})
	return nil
}

// PlaceForPlayer is the delegated placement entry point: the caller is the
// session key, not the player. Custody, payout routing and the risk bound are
// identical to Place — the stake comes from the player and any payout routes
// back to the player; the session key can never redirect funds to itself.
func (c *LifecycleController) PlaceForPlayer(ctx context.Context, sessionKey, player common.Address, amount, targetOdds *uint256.Int) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.sessions[player]
	if !ok || session.SessionKey != sessionKey {
		return 0, entities.ErrUnauthorized
	}

	height, err := c.chain.CurrentHeight(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read chain height: %w", err)
	}
	if session.ExpiredAt(height) {
		return 0, entities.ErrSessionExpired
	}
	if amount != nil && !session.Allows(amount) {
		return 0, entities.ErrSessionCapExceeded
	}

	return c.placeLocked(ctx, player, amount, targetOdds)
}

// Session returns a copy of the player's active session, or nil.
func (c *LifecycleController) Session(player common.Address) *entities.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.sessions[player]
	if !ok {
		return nil
	}
	cp := *session
	cp.MaxBetPerGame = session.MaxBetPerGame.Clone()
	return &cp
}
