package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/campusconnect/core/market"
)

type listingRepository struct {
	db *listingTable
}

var _ market.Repository = (*listingRepository)(nil) // interface compliance check

func NewListingRepository(db *DB) market.Repository {
	return &listingRepository{db: db.listing}
}

func cloneListing(l market.Listing) market.Listing {
	l.Images = cloneStrings(l.Images)
	return l
}

// owned must be called with the lock held.
func (repo *listingRepository) owned(id, userID string) (*row[market.Listing], error) {
	r, ok := repo.db.table[id]
	if !ok || r.val.UserID != userID {
		return nil, market.ErrNotFound
	}
	return r, nil
}

func (repo *listingRepository) CreateListing(_ context.Context, l market.Listing) (market.Listing, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	l.ID = uuid.New().String()
	repo.db.seq++
	repo.db.table[l.ID] = &row[market.Listing]{val: cloneListing(l), seq: repo.db.seq}
	return cloneListing(l), nil
}

func (repo *listingRepository) QueryListings(context.Context) ([]market.Listing, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	listings := sortedDesc(repo.db.table, func(l market.Listing) time.Time { return l.CreatedAt })
	for i := range listings {
		listings[i] = cloneListing(listings[i])
	}
	return listings, nil
}

func (repo *listingRepository) GetListing(_ context.Context, id, userID string) (market.Listing, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	r, err := repo.owned(id, userID)
	if err != nil {
		return market.Listing{}, err
	}
	return cloneListing(r.val), nil
}

func (repo *listingRepository) UpdateListing(_ context.Context, l market.Listing) (market.Listing, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r, err := repo.owned(l.ID, l.UserID)
	if err != nil {
		return market.Listing{}, err
	}
	l.Images = r.val.Images
	l.CreatedAt = r.val.CreatedAt
	r.val = cloneListing(l)
	return cloneListing(r.val), nil
}

func (repo *listingRepository) AddImages(_ context.Context, id, userID string, paths []string) (market.Listing, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r, err := repo.owned(id, userID)
	if err != nil {
		return market.Listing{}, err
	}
	r.val.Images = append(cloneStrings(r.val.Images), paths...)
	return cloneListing(r.val), nil
}

func (repo *listingRepository) DeleteListing(_ context.Context, id, userID string) (market.Listing, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r, err := repo.owned(id, userID)
	if err != nil {
		return market.Listing{}, err
	}
	delete(repo.db.table, id)
	return r.val, nil
}
