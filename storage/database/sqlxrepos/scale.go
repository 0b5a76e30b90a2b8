package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/tsakani/alama/core"
	"github.com/tsakani/alama/core/academic"
)

type scaleEntryRow struct {
	ID         string              `db:"id"`
	UserID     string              `db:"user_id"`
	Label      string              `db:"label"`
	PointValue decimal.Decimal     `db:"point_value"`
	MinPercent decimal.NullDecimal `db:"min_percent"`
	MaxPercent decimal.NullDecimal `db:"max_percent"`
	CreatedAt  time.Time           `db:"created_at"`
	UpdatedAt  time.Time           `db:"updated_at"`
}

func (r scaleEntryRow) toDomain() academic.GradeScaleEntry {
	entry := academic.GradeScaleEntry{
		ID:         r.ID,
		UserID:     r.UserID,
		Label:      r.Label,
		PointValue: r.PointValue,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.MinPercent.Valid {
		min := r.MinPercent.Decimal
		entry.MinPercent = &min
	}
	if r.MaxPercent.Valid {
		max := r.MaxPercent.Decimal
		entry.MaxPercent = &max
	}
	return entry
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

var scaleUniqueConstraints = map[string]error{
	"grade_scale_entry_user_id_label_key": academic.ErrGradeLabelExists,
}

type scaleRepository struct {
	db *sqlx.DB
}

var _ academic.ScaleRepository = (*scaleRepository)(nil)

func NewScaleRepository(db *sqlx.DB) *scaleRepository {
	return &scaleRepository{db: db}
}

func (repo scaleRepository) CreateScaleEntry(ctx context.Context, entry academic.GradeScaleEntry) (academic.GradeScaleEntry, error) {
	entry.ID = uuid.New().String()

	const query = `
		INSERT INTO grade_scale_entry (id, user_id, label, point_value, min_percent, max_percent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.Label, entry.PointValue,
		nullDecimal(entry.MinPercent), nullDecimal(entry.MaxPercent),
		entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return academic.GradeScaleEntry{}, trapUniqueErr(err, scaleUniqueConstraints, "inserting scale entry")
	}
	return entry, nil
}

func (repo scaleRepository) QueryScaleEntries(ctx context.Context, userID string) ([]academic.GradeScaleEntry, error) {
	const query = `SELECT * FROM grade_scale_entry WHERE user_id = $1 ORDER BY point_value DESC, label ASC`
	var rows []scaleEntryRow
	if err := repo.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, core.NewStoreError("querying grading scale", err)
	}

	entries := make([]academic.GradeScaleEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.toDomain())
	}
	return entries, nil
}

func (repo scaleRepository) GetScaleEntry(ctx context.Context, id string) (academic.GradeScaleEntry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return academic.GradeScaleEntry{}, academic.ErrScaleEntryNotFound
	}

	var row scaleEntryRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM grade_scale_entry WHERE id = $1`, id)
	if err != nil {
		return academic.GradeScaleEntry{}, trapNoRowsErr(err, academic.ErrScaleEntryNotFound, "finding scale entry")
	}
	return row.toDomain(), nil
}

func (repo scaleRepository) UpdateScaleEntry(ctx context.Context, entry academic.GradeScaleEntry) (academic.GradeScaleEntry, error) {
	const query = `
		UPDATE grade_scale_entry
		SET label = $2, point_value = $3, min_percent = $4, max_percent = $5, updated_at = $6
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query,
		entry.ID, entry.Label, entry.PointValue,
		nullDecimal(entry.MinPercent), nullDecimal(entry.MaxPercent), entry.UpdatedAt,
	)
	if err != nil {
		return academic.GradeScaleEntry{}, trapUniqueErr(err, scaleUniqueConstraints, "updating scale entry")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return academic.GradeScaleEntry{}, academic.ErrScaleEntryNotFound
	}
	return entry, nil
}

func (repo scaleRepository) DeleteScaleEntriesByID(ctx context.Context, ids ...string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM grade_scale_entry WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, core.NewStoreError("deleting scale entries", err)
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, core.NewStoreError("deleting scale entries", err)
	}
	return int(cnt), nil
}
