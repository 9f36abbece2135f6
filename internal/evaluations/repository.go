// internal/evaluations/repository.go
package evaluations

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"procurement-workers/internal/common/database"
	"procurement-workers/internal/models"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("no evaluation recorded")

// Schema creates the evaluation history and audit tables. Evaluations are
// only ever inserted.
const Schema = `
CREATE TABLE IF NOT EXISTS qualification_evaluations (
	id                   UUID PRIMARY KEY,
	vendor_id            TEXT NOT NULL,
	reviewer_id          TEXT NOT NULL,
	document_compliance  SMALLINT NOT NULL CHECK (document_compliance BETWEEN 0 AND 100),
	technical_capability SMALLINT NOT NULL CHECK (technical_capability BETWEEN 0 AND 100),
	financial_strength   SMALLINT NOT NULL CHECK (financial_strength BETWEEN 0 AND 100),
	experience           SMALLINT NOT NULL CHECK (experience BETWEEN 0 AND 100),
	responsiveness       SMALLINT NOT NULL CHECK (responsiveness BETWEEN 0 AND 100),
	total_score          NUMERIC(4,1) NOT NULL,
	vendor_class         CHAR(1) NOT NULL,
	notes                TEXT NOT NULL DEFAULT '',
	created_at           TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_qualification_evaluations_vendor
	ON qualification_evaluations (vendor_id, created_at DESC);

CREATE TABLE IF NOT EXISTS audit_log (
	id            BIGSERIAL PRIMARY KEY,
	event_type    TEXT NOT NULL,
	resource_type TEXT NOT NULL,
	resource_id   TEXT NOT NULL,
	details       JSONB NOT NULL DEFAULT '{}',
	created_at    TIMESTAMPTZ NOT NULL
);`

const selectColumns = `id, vendor_id, reviewer_id,
	document_compliance, technical_capability, financial_strength, experience, responsiveness,
	total_score, vendor_class, notes, created_at`

// Repository is the append-only evaluation history.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Migrate creates the tables when they do not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate evaluations: %w", err)
	}
	return nil
}

// evaluationNamespace scopes job-derived evaluation ids.
var evaluationNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:procurement-workers:qualification-evaluation"))

// IDForJob returns the evaluation id owned by a Zeebe job. Every delivery of
// the same job maps to the same id.
func IDForJob(jobKey int64) string {
	return uuid.NewSHA1(evaluationNamespace, []byte(strconv.FormatInt(jobKey, 10))).String()
}

// Append inserts e together with its audit entry. ID and CreatedAt are
// assigned when empty. Appending an id that already exists writes nothing and
// returns the stored evaluation with inserted false.
func (r *Repository) Append(ctx context.Context, e models.QualificationEvaluation) (saved models.QualificationEvaluation, inserted bool, err error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now().UTC()
	}

	details, err := json.Marshal(map[string]interface{}{
		"evaluationId": e.ID,
		"vendorId":     e.VendorID,
		"reviewerId":   e.ReviewerID,
		"totalScore":   e.TotalScore,
		"vendorClass":  e.VendorClass,
	})
	if err != nil {
		return e, false, fmt.Errorf("encode audit details: %w", err)
	}

	saved = e
	err = database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO qualification_evaluations (
				id, vendor_id, reviewer_id,
				document_compliance, technical_capability, financial_strength, experience, responsiveness,
				total_score, vendor_class, notes, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (id) DO NOTHING`,
			e.ID, e.VendorID, e.ReviewerID,
			e.Scores.DocumentCompliance, e.Scores.TechnicalCapability, e.Scores.FinancialStrength,
			e.Scores.Experience, e.Scores.Responsiveness,
			e.TotalScore, e.VendorClass, e.Notes, e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert evaluation: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert evaluation: %w", err)
		}
		if n == 0 {
			row := tx.QueryRowContext(ctx, `
				SELECT `+selectColumns+`
				FROM qualification_evaluations
				WHERE id = $1`, e.ID)
			if saved, err = scanEvaluation(row); err != nil {
				return fmt.Errorf("load recorded evaluation %s: %w", e.ID, err)
			}
			return nil
		}
		inserted = true

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			"qualification_evaluated",
			"vendor",
			e.VendorID,
			details,
			e.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return e, false, err
	}
	return saved, inserted, nil
}

// LatestForVendor returns the most recent evaluation of a vendor.
func (r *Repository) LatestForVendor(ctx context.Context, vendorID string) (models.QualificationEvaluation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM qualification_evaluations
		WHERE vendor_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, vendorID)

	e, err := scanEvaluation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return e, fmt.Errorf("%w for vendor %s", ErrNotFound, vendorID)
	}
	return e, err
}

// History returns every evaluation of a vendor, newest first.
func (r *Repository) History(ctx context.Context, vendorID string) ([]models.QualificationEvaluation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM qualification_evaluations
		WHERE vendor_id = $1
		ORDER BY created_at DESC`, vendorID)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	var out []models.QualificationEvaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEvaluation(s scanner) (models.QualificationEvaluation, error) {
	var e models.QualificationEvaluation
	err := s.Scan(
		&e.ID, &e.VendorID, &e.ReviewerID,
		&e.Scores.DocumentCompliance, &e.Scores.TechnicalCapability, &e.Scores.FinancialStrength,
		&e.Scores.Experience, &e.Scores.Responsiveness,
		&e.TotalScore, &e.VendorClass, &e.Notes, &e.CreatedAt,
	)
	return e, err
}
