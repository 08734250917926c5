package services

import (
	"github.com/ethereum/go-ethereum/common"

	"dicehouse/domain/entities"
)

// Operation names a controller entry point for authorization purposes.
type Operation string

const (
	OpPlace         Operation = "place"
	OpClaim         Operation = "claim"
	OpSweep         Operation = "sweep"
	OpSetParams     Operation = "set_params"
	OpRevokeSession Operation = "revoke_session"
)

// isAuthorizedCaller is the single authorization matrix for the controller:
//
//	sweep          — anyone
//	place          — anyone placing for themselves (sessions go through
//	                 PlaceForPlayer, which checks the session binding)
//	claim          — the bet's player, or the player's unexpired session key
//	set_params     — owner only
//	revoke_session — the player whose session it is
//
// bet may be nil for operations that do not target a bet; height is the
// current chain height, used for session expiry.
func (c *LifecycleController) isAuthorizedCaller(op Operation, actor common.Address, bet *entities.Bet, height uint64) bool {
	switch op {
	case OpSweep, OpPlace:
		return true
	case OpClaim:
		if bet == nil {
			return false
		}
		if actor == bet.Player {
			return true
		}
		player, ok := c.sessionKeys[actor]
		if !ok || player != bet.Player {
			return false
		}
		session := c.sessions[player]
		return session != nil && session.SessionKey == actor && !session.ExpiredAt(height)
	case OpSetParams:
		return actor == c.owner
	case OpRevokeSession:
		_, ok := c.sessions[actor]
		return ok
	default:
		return false
	}
}
