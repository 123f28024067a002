package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/campusconnect/core/lostfound"
)

type lostFoundRepository struct {
	db *lostFoundTable
}

var _ lostfound.Repository = (*lostFoundRepository)(nil) // interface compliance check

func NewLostFoundRepository(db *DB) lostfound.Repository {
	return &lostFoundRepository{db: db.lostFound}
}

func (repo *lostFoundRepository) CreateItem(_ context.Context, it lostfound.Item) (lostfound.Item, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	it.ID = uuid.New().String()
	repo.db.seq++
	repo.db.table[it.ID] = &row[lostfound.Item]{val: it, seq: repo.db.seq}
	return it, nil
}

func (repo *lostFoundRepository) QueryItems(context.Context) ([]lostfound.Item, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return sortedDesc(repo.db.table, func(it lostfound.Item) time.Time { return it.CreatedAt }), nil
}

func (repo *lostFoundRepository) UpdateItemStatus(_ context.Context, itemID, userID, status string) (lostfound.Item, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r, ok := repo.db.table[itemID]
	if !ok || r.val.UserID != userID {
		return lostfound.Item{}, lostfound.ErrNotFound
	}
	r.val.Status = status
	return r.val, nil
}

func (repo *lostFoundRepository) DeleteItem(_ context.Context, itemID, userID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r, ok := repo.db.table[itemID]
	if !ok || r.val.UserID != userID {
		return lostfound.ErrNotFound
	}
	delete(repo.db.table, itemID)
	return nil
}
