package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/campusconnect/core"
	"github.com/trezcool/campusconnect/core/club"
)

type clubRepository struct {
	db *clubTable
}

var _ club.Repository = (*clubRepository)(nil) // interface compliance check

func NewClubRepository(db *DB) club.Repository {
	return &clubRepository{db: db.club}
}

func cloneClub(c club.Club) club.Club {
	links := make(map[string]string, len(c.SocialLinks))
	for k, v := range c.SocialLinks {
		links[k] = v
	}
	c.SocialLinks = links
	c.Members = cloneStrings(c.Members)
	return c
}

func (repo *clubRepository) CreateClub(_ context.Context, c club.Club) (club.Club, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, r := range repo.db.table {
		if r.val.Name == c.Name {
			return club.Club{}, club.ErrNameExists
		}
	}
	c.ID = uuid.New().String()
	repo.db.seq++
	repo.db.table[c.ID] = &row[club.Club]{val: cloneClub(c), seq: repo.db.seq}
	return cloneClub(c), nil
}

func (repo *clubRepository) QueryClubs(context.Context) ([]club.Club, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	clubs := sortedDesc(repo.db.table, func(c club.Club) time.Time { return c.CreatedAt })
	for i := range clubs {
		clubs[i] = cloneClub(clubs[i])
	}
	return clubs, nil
}

func (repo *clubRepository) GetClub(_ context.Context, id string) (club.Club, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if r, ok := repo.db.table[id]; ok {
		return cloneClub(r.val), nil
	}
	return club.Club{}, club.ErrNotFound
}

func (repo *clubRepository) AddMember(_ context.Context, clubID, userID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r, ok := repo.db.table[clubID]
	if !ok {
		return club.ErrNotFound
	}
	if r.val.IsMember(userID) {
		return club.ErrAlreadyMember
	}
	r.val.Members = append(r.val.Members, userID)
	return nil
}

func (repo *clubRepository) RemoveMember(_ context.Context, clubID, userID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r, ok := repo.db.table[clubID]
	if !ok {
		return club.ErrNotFound
	}
	if !r.val.IsMember(userID) {
		return club.ErrNotMember
	}
	r.val.Members = core.RemoveString(r.val.Members, userID)
	return nil
}
