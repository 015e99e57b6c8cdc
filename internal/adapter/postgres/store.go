package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/OnboardForge/internal/domain"
	"github.com/Strob0t/OnboardForge/internal/domain/assessment"
	"github.com/Strob0t/OnboardForge/internal/domain/communication"
	"github.com/Strob0t/OnboardForge/internal/domain/decision"
	"github.com/Strob0t/OnboardForge/internal/domain/onboarding"
	"github.com/Strob0t/OnboardForge/internal/domain/review"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const caseColumns = `id, status, application, assessment, decision, explanation, explanation_fallback,
	communication, review_packet, overrides, final_outcome, version, created_at, updated_at`

// caseRow holds the JSONB encodings of a case's nested documents.
type caseRow struct {
	application, record, decision, message, packet, overrides []byte
}

func encodeCase(c *onboarding.Case) (caseRow, error) {
	var (
		row caseRow
		err error
	)
	if row.application, err = json.Marshal(c.Application); err != nil {
		return row, fmt.Errorf("encode application: %w", err)
	}
	if row.record, err = jsonOrNull(c.Record); err != nil {
		return row, fmt.Errorf("encode assessment: %w", err)
	}
	if row.decision, err = jsonOrNull(c.Decision); err != nil {
		return row, fmt.Errorf("encode decision: %w", err)
	}
	if row.message, err = jsonOrNull(c.Message); err != nil {
		return row, fmt.Errorf("encode communication: %w", err)
	}
	if row.packet, err = jsonOrNull(c.ReviewPacket); err != nil {
		return row, fmt.Errorf("encode review packet: %w", err)
	}
	if row.overrides, err = json.Marshal(orEmpty(c.Overrides)); err != nil {
		return row, fmt.Errorf("encode overrides: %w", err)
	}
	return row, nil
}

func scanCase(s scannable) (onboarding.Case, error) {
	var (
		c   onboarding.Case
		row caseRow
		err error
	)
	if err = s.Scan(
		&c.ID, &c.Status, &row.application, &row.record, &row.decision, &c.Explanation, &c.ExplanationFallback,
		&row.message, &row.packet, &row.overrides, &c.FinalOutcome, &c.Version, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return c, err
	}
	if err = json.Unmarshal(row.application, &c.Application); err != nil {
		return c, fmt.Errorf("decode application %s: %w", c.ID, err)
	}
	if c.Record, err = unmarshalOptional[assessment.Record](row.record); err != nil {
		return c, fmt.Errorf("decode assessment %s: %w", c.ID, err)
	}
	if c.Decision, err = unmarshalOptional[decision.Decision](row.decision); err != nil {
		return c, fmt.Errorf("decode decision %s: %w", c.ID, err)
	}
	if c.Message, err = unmarshalOptional[communication.Message](row.message); err != nil {
		return c, fmt.Errorf("decode communication %s: %w", c.ID, err)
	}
	if c.ReviewPacket, err = unmarshalOptional[review.Packet](row.packet); err != nil {
		return c, fmt.Errorf("decode review packet %s: %w", c.ID, err)
	}
	if len(row.overrides) > 0 {
		if err = json.Unmarshal(row.overrides, &c.Overrides); err != nil {
			return c, fmt.Errorf("decode overrides %s: %w", c.ID, err)
		}
	}
	if len(c.Overrides) == 0 {
		c.Overrides = nil
	}
	return c, nil
}

// CreateCase inserts a new case at version 1. A duplicate id is a conflict.
func (s *Store) CreateCase(ctx context.Context, c *onboarding.Case) error {
	row, err := encodeCase(c)
	if err != nil {
		return err
	}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO onboarding_cases (id, business_name, status, application, assessment, decision, explanation,
			explanation_fallback, communication, review_packet, overrides, final_outcome, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1, $13, $14)
		 RETURNING version`,
		c.ID, c.Application.BusinessName, string(c.Status), row.application, row.record, row.decision, c.Explanation,
		c.ExplanationFallback, row.message, row.packet, row.overrides, string(c.FinalOutcome), c.CreatedAt, c.UpdatedAt,
	).Scan(&c.Version)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create case %s: %w", c.ID, domain.ErrConflict)
		}
		return fmt.Errorf("create case %s: %w", c.ID, err)
	}
	return nil
}

func (s *Store) GetCase(ctx context.Context, id string) (*onboarding.Case, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+caseColumns+` FROM onboarding_cases WHERE id = $1`, id)
	c, err := scanCase(row)
	if err != nil {
		return nil, notFoundWrap(err, "get case %s", id)
	}
	return &c, nil
}

// UpdateCase writes the case when its version still matches the stored one.
func (s *Store) UpdateCase(ctx context.Context, c *onboarding.Case) error {
	row, err := encodeCase(c)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE onboarding_cases SET status = $3, application = $4, assessment = $5, decision = $6, explanation = $7,
			explanation_fallback = $8, communication = $9, review_packet = $10, overrides = $11, final_outcome = $12,
			updated_at = $13, version = version + 1
		 WHERE id = $1 AND version = $2`,
		c.ID, c.Version, string(c.Status), row.application, row.record, row.decision, c.Explanation,
		c.ExplanationFallback, row.message, row.packet, row.overrides, string(c.FinalOutcome), c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update case %s: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from a stale version.
		if _, getErr := s.GetCase(ctx, c.ID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("update case %s: %w", c.ID, domain.ErrConflict)
	}
	c.Version++
	return nil
}

func (s *Store) ListCases(ctx context.Context, f onboarding.ListFilter) ([]onboarding.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM onboarding_cases`
	var args []any
	if f.Status != "" {
		args = append(args, string(f.Status))
		query += ` WHERE status = $1`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var cases []onboarding.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		cases = append(cases, c)
	}
	return orEmpty(cases), rows.Err()
}
