package repository

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5"

	"dicehouse/database"
	"dicehouse/domain/entities"
	"dicehouse/domain/interfaces"
)

type betArchiveRepository struct {
	q Queryable
}

// NewBetArchiveRepository creates a new bet archive over the connection pool.
func NewBetArchiveRepository(db *database.DB) interfaces.BetArchive {
	return &betArchiveRepository{q: db.Pool}
}

func (r *betArchiveRepository) Create(ctx context.Context, bet *entities.Bet) error {
	query := `
		INSERT INTO bets (id, player, amount, target_odds, placement_height, status, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.q.Exec(ctx, query,
		int64(bet.ID),
		bet.Player.Hex(),
		bet.Amount.Dec(),
		bet.TargetOdds.Dec(),
		int64(bet.PlacementHeight),
		string(bet.Status),
		bet.PlacedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to archive bet: %w", err)
	}
	return nil
}

func (r *betArchiveRepository) UpdateStatus(ctx context.Context, id uint64, status entities.BetStatus) error {
	query := `
		UPDATE bets SET status = $2, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.q.Exec(ctx, query, int64(id), string(status))
	if err != nil {
		return fmt.Errorf("failed to update archived bet status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("archived bet %d not found", id)
	}
	return nil
}

func (r *betArchiveRepository) GetByID(ctx context.Context, id uint64) (*entities.Bet, error) {
	query := `
		SELECT id, player, amount, target_odds, placement_height, status, placed_at
		FROM bets
		WHERE id = $1`

	bet, err := scanBet(r.q.QueryRow(ctx, query, int64(id)))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get archived bet: %w", err)
	}
	return bet, nil
}

func (r *betArchiveRepository) GetByPlayer(ctx context.Context, player common.Address, limit int) ([]*entities.Bet, error) {
	query := `
		SELECT id, player, amount, target_odds, placement_height, status, placed_at
		FROM bets
		WHERE player = $1
		ORDER BY id DESC
		LIMIT $2`

	rows, err := r.q.Query(ctx, query, player.Hex(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query archived bets: %w", err)
	}
	defer rows.Close()

	var bets []*entities.Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan archived bet: %w", err)
		}
		bets = append(bets, bet)
	}
	return bets, rows.Err()
}

func (r *betArchiveRepository) CountByStatus(ctx context.Context) (map[entities.BetStatus]int64, error) {
	query := `
		SELECT status, COUNT(*)
		FROM bets
		GROUP BY status`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count archived bets: %w", err)
	}
	defer rows.Close()

	counts := make(map[entities.BetStatus]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[entities.BetStatus(status)] = count
	}
	return counts, rows.Err()
}

func scanBet(row pgx.Row) (*entities.Bet, error) {
	var bet entities.Bet
	var id, height int64
	var player, amount, targetOdds, status string

	if err := row.Scan(&id, &player, &amount, &targetOdds, &height, &status, &bet.PlacedAt); err != nil {
		return nil, err
	}

	parsedAmount, err := uint256.FromDecimal(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid archived amount %q: %w", amount, err)
	}
	parsedOdds, err := uint256.FromDecimal(targetOdds)
	if err != nil {
		return nil, fmt.Errorf("invalid archived odds %q: %w", targetOdds, err)
	}

	bet.ID = uint64(id)
	bet.Player = common.HexToAddress(player)
	bet.Amount = parsedAmount
	bet.TargetOdds = parsedOdds
	bet.PlacementHeight = uint64(height)
	bet.Status = entities.BetStatus(status)
	return &bet, nil
}
