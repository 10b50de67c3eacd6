package mysql

import (
	"context"
	"database/sql"
	"fmt"

	domain "github.com/microloan-ai/risk-api/internal/domain/rules"
)

type RuleRepository struct {
	db *sql.DB
}

func NewRuleRepository(db *sql.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// List returns every rule in storage order.
func (r *RuleRepository) List(ctx context.Context) ([]domain.Rule, error) {
	const q = `
SELECT category, item, weight
FROM risk_rules
ORDER BY id;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Rule
	for rows.Next() {
		var rl domain.Rule
		if err := rows.Scan(&rl.Category, &rl.Item, &rl.Weight); err != nil {
			return nil, err
		}
		out = append(out, rl)
	}
	return out, rows.Err()
}

// ReplaceAll swaps the whole rule table inside one transaction.
func (r *RuleRepository) ReplaceAll(ctx context.Context, rr []domain.Rule) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning rule replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM risk_rules;`); err != nil {
		return fmt.Errorf("clearing rules: %w", err)
	}
	const ins = `INSERT INTO risk_rules (category, item, weight) VALUES (?,?,?);`
	for _, rl := range rr {
		if _, err := tx.ExecContext(ctx, ins, rl.Category, rl.Item, rl.Weight); err != nil {
			return fmt.Errorf("inserting rule (%s, %s): %w", rl.Category, rl.Item, err)
		}
	}
	return tx.Commit()
}
