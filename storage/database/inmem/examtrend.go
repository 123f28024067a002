package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/campusconnect/core/examtrend"
)

type examRecordRepository struct {
	db *examRecordTable
}

var _ examtrend.Repository = (*examRecordRepository)(nil) // interface compliance check

func NewExamRecordRepository(db *DB) examtrend.Repository {
	return &examRecordRepository{db: db.examRecord}
}

func (repo *examRecordRepository) CreateRecord(_ context.Context, rec examtrend.Record) (examtrend.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	rec.ID = uuid.New().String()
	repo.db.seq++
	repo.db.table[rec.ID] = &row[examtrend.Record]{val: rec, seq: repo.db.seq}
	return rec, nil
}

func (repo *examRecordRepository) CreateRecords(_ context.Context, recs []examtrend.Record) ([]examtrend.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	created := make([]examtrend.Record, len(recs))
	for i, rec := range recs {
		rec.ID = uuid.New().String()
		repo.db.seq++
		repo.db.table[rec.ID] = &row[examtrend.Record]{val: rec, seq: repo.db.seq}
		created[i] = rec
	}
	return created, nil
}

func (repo *examRecordRepository) QueryRecords(_ context.Context, userID string) ([]examtrend.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	all := sortedDesc(repo.db.table, func(rec examtrend.Record) time.Time { return rec.Date })
	recs := make([]examtrend.Record, 0, len(all))
	for _, rec := range all {
		if rec.UserID == userID {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}
