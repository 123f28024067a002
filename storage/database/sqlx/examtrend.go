package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/campusconnect/core/examtrend"
)

type examRecordRow struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	Subject    string    `db:"subject"`
	Topic      string    `db:"topic"`
	Difficulty string    `db:"difficulty"`
	StudyHours float64   `db:"study_hours"`
	Grade      float64   `db:"grade"`
	Date       time.Time `db:"date"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r examRecordRow) record() examtrend.Record {
	return examtrend.Record{
		ID:         r.ID,
		UserID:     r.UserID,
		Subject:    r.Subject,
		Topic:      r.Topic,
		Difficulty: r.Difficulty,
		StudyHours: r.StudyHours,
		Grade:      r.Grade,
		Date:       r.Date.UTC(),
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

type examRecordRepository struct {
	db *sqlx.DB
}

var _ examtrend.Repository = (*examRecordRepository)(nil) // interface compliance check

func NewExamRecordRepository(db *sqlx.DB) examtrend.Repository {
	return &examRecordRepository{db: db}
}

const examRecordColumns = `id, user_id, subject, topic, difficulty, study_hours, grade, date, created_at`

const insertExamRecord = `INSERT INTO exam_records (` + examRecordColumns + `)
	VALUES (:id, :user_id, :subject, :topic, :difficulty, :study_hours, :grade, :date, :created_at)`

// insertRecord gives rec a new ID and inserts it through e, a DB or a Tx.
func insertRecord(ctx context.Context, e sqlx.ExtContext, rec examtrend.Record) (examtrend.Record, error) {
	rec.ID = uuid.New().String()
	r := examRecordRow{
		ID:         rec.ID,
		UserID:     rec.UserID,
		Subject:    rec.Subject,
		Topic:      rec.Topic,
		Difficulty: rec.Difficulty,
		StudyHours: rec.StudyHours,
		Grade:      rec.Grade,
		Date:       rec.Date.UTC(),
		CreatedAt:  rec.CreatedAt.UTC(),
	}
	if _, err := sqlx.NamedExecContext(ctx, e, insertExamRecord, r); err != nil {
		return examtrend.Record{}, errors.Wrap(err, "inserting exam record")
	}
	return rec, nil
}

func (repo *examRecordRepository) CreateRecord(ctx context.Context, rec examtrend.Record) (examtrend.Record, error) {
	return insertRecord(ctx, repo.db, rec)
}

func (repo *examRecordRepository) CreateRecords(ctx context.Context, recs []examtrend.Record) ([]examtrend.Record, error) {
	created := make([]examtrend.Record, 0, len(recs))
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		for _, rec := range recs {
			saved, err := insertRecord(ctx, tx, rec)
			if err != nil {
				return err
			}
			created = append(created, saved)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (repo *examRecordRepository) QueryRecords(ctx context.Context, userID string) ([]examtrend.Record, error) {
	if !validID(userID) {
		return []examtrend.Record{}, nil
	}
	var rows []examRecordRow
	q := `SELECT ` + examRecordColumns + ` FROM exam_records WHERE user_id = $1 ORDER BY date DESC, created_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "querying exam records")
	}
	recs := make([]examtrend.Record, len(rows))
	for i, r := range rows {
		recs[i] = r.record()
	}
	return recs, nil
}
