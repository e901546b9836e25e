package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/eroudini/AiMerchant-sub000/internal/domain"
	"github.com/jmoiron/sqlx"
)

const (
	recommendationTable = "recommendation"
	executionLogTable   = "action_execution_log"
	listLimit           = 200
)

var recommendationColumns = []string{
	"id", "account_id", "product_code", "country", "type", "status", "payload", "note", "created_at",
}

// errNoDrafts aborts the execute transaction when nothing is executable.
var errNoDrafts = errors.New("no draft recommendations matched")

type recommendationRepository struct {
	db *DB
}

func NewRecommendationRepository(db *DB) *recommendationRepository {
	return &recommendationRepository{db: db}
}

// List returns the newest recommendations of an account, capped at 200 rows.
func (r *recommendationRepository) List(ctx context.Context, accountID string, filter domain.RecommendationFilter) ([]domain.Recommendation, error) {
	query, args, err := psql.
		Select(recommendationColumns...).
		From(recommendationTable).
		Where(recommendationFilterPredicate(accountID, filter)).
		OrderBy("created_at DESC").
		Limit(listLimit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list recommendations query: %w", err)
	}

	recs := make([]domain.Recommendation, 0)
	if err := sqlx.SelectContext(ctx, r.db, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}

	return recs, nil
}

// ReplaceDrafts deletes the draft purchase orders of the scope and inserts
// recs in the same transaction. A failure leaves the previous drafts in place.
func (r *recommendationRepository) ReplaceDrafts(ctx context.Context, scope domain.Scope, recs []domain.Recommendation) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	deleteQuery, deleteArgs, err := psql.
		Delete(recommendationTable).
		Where(scopePredicate(scope, "")).
		Where(sq.Eq{
			"type":   string(domain.TypePurchaseOrder),
			"status": string(domain.StatusDraft),
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete drafts query: %w", err)
	}

	insert := psql.
		Insert(recommendationTable).
		Columns("id", "account_id", "product_code", "country", "type", "status", "payload", "note")
	for _, rec := range recs {
		payload, err := rec.Payload.Value()
		if err != nil {
			return 0, fmt.Errorf("encode recommendation payload: %w", err)
		}
		insert = insert.Values(
			rec.ID,
			rec.AccountID,
			rec.ProductCode,
			rec.Country,
			string(rec.Type),
			string(rec.Status),
			sq.Expr("?::jsonb", payload),
			rec.Note,
		)
	}
	insertQuery, insertArgs, err := insert.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert recommendations query: %w", err)
	}

	err = r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
			return fmt.Errorf("failed to delete draft recommendations: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return fmt.Errorf("failed to insert recommendations: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(recs), nil
}

// Execute transitions the draft recommendations among ids to executed,
// appends note and writes one audit row per executed recommendation.
// Rows that are not drafts are skipped. It returns the executed rows.
func (r *recommendationRepository) Execute(ctx context.Context, accountID string, ids []string, note, message string) ([]domain.Recommendation, error) {
	ids = dedupeCodes(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	selectQuery, selectArgs, err := psql.
		Select(recommendationColumns...).
		From(recommendationTable).
		Where(sq.Eq{
			"account_id": accountID,
			"id":         ids,
			"status":     string(domain.StatusDraft),
		}).
		OrderBy("created_at DESC").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select drafts query: %w", err)
	}

	var executed []domain.Recommendation
	err = r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var drafts []domain.Recommendation
		if err := tx.SelectContext(ctx, &drafts, selectQuery, selectArgs...); err != nil {
			return fmt.Errorf("failed to select draft recommendations: %w", err)
		}
		if len(drafts) == 0 {
			return errNoDrafts
		}

		draftIDs := make([]string, len(drafts))
		for i, d := range drafts {
			draftIDs[i] = d.ID
		}

		update := psql.
			Update(recommendationTable).
			Set("status", string(domain.StatusExecuted)).
			Where(sq.Eq{"account_id": accountID, "id": draftIDs})
		if note != "" {
			update = update.Set("note", sq.Expr(
				"CASE WHEN note IS NULL OR note = '' THEN ? ELSE note || ' | ' || ? END", note, note,
			))
		}
		updateQuery, updateArgs, err := update.ToSql()
		if err != nil {
			return fmt.Errorf("build execute update query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
			return fmt.Errorf("failed to mark recommendations executed: %w", err)
		}

		logInsert := psql.
			Insert(executionLogTable).
			Columns("account_id", "product_code", "action_type", "payload", "status", "message")
		for _, d := range drafts {
			payload, err := d.Payload.Value()
			if err != nil {
				return fmt.Errorf("encode execution log payload: %w", err)
			}
			logInsert = logInsert.Values(accountID, d.ProductCode, string(d.Type), sq.Expr("?::jsonb", payload), "success", message)
		}
		logQuery, logArgs, err := logInsert.ToSql()
		if err != nil {
			return fmt.Errorf("build execution log query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, logQuery, logArgs...); err != nil {
			return fmt.Errorf("failed to write execution log: %w", err)
		}

		for i := range drafts {
			drafts[i].Status = domain.StatusExecuted
			drafts[i].Note = appendNote(drafts[i].Note, note)
		}
		executed = drafts
		return nil
	})
	if errors.Is(err, errNoDrafts) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return executed, nil
}

func appendNote(existing *string, note string) *string {
	if note == "" {
		return existing
	}
	if existing == nil || *existing == "" {
		return &note
	}
	joined := *existing + " | " + note
	return &joined
}
