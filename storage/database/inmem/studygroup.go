package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/campusconnect/core"
	"github.com/trezcool/campusconnect/core/studygroup"
)

type studyGroupRepository struct {
	db *studyGroupTable
}

var _ studygroup.Repository = (*studyGroupRepository)(nil) // interface compliance check

func NewStudyGroupRepository(db *DB) studygroup.Repository {
	return &studyGroupRepository{db: db.studyGroup}
}

func cloneGroup(g studygroup.Group) studygroup.Group {
	g.Members = cloneStrings(g.Members)
	return g
}

func (repo *studyGroupRepository) CreateGroup(_ context.Context, g studygroup.Group) (studygroup.Group, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	g.ID = uuid.New().String()
	repo.db.seq++
	repo.db.table[g.ID] = &row[studygroup.Group]{val: cloneGroup(g), seq: repo.db.seq}
	return cloneGroup(g), nil
}

func (repo *studyGroupRepository) QueryGroups(context.Context) ([]studygroup.Group, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	groups := sortedDesc(repo.db.table, func(g studygroup.Group) time.Time { return g.CreatedAt })
	for i := range groups {
		groups[i] = cloneGroup(groups[i])
	}
	return groups, nil
}

func (repo *studyGroupRepository) GetGroup(_ context.Context, id string) (studygroup.Group, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if r, ok := repo.db.table[id]; ok {
		return cloneGroup(r.val), nil
	}
	return studygroup.Group{}, studygroup.ErrNotFound
}

func (repo *studyGroupRepository) AddMember(_ context.Context, groupID, userID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r, ok := repo.db.table[groupID]
	if !ok {
		return studygroup.ErrNotFound
	}
	switch {
	case r.val.IsMember(userID):
		return studygroup.ErrAlreadyMember
	case r.val.IsFull():
		return studygroup.ErrFull
	}
	r.val.Members = append(r.val.Members, userID)
	return nil
}

func (repo *studyGroupRepository) RemoveMember(_ context.Context, groupID, userID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r, ok := repo.db.table[groupID]
	if !ok {
		return studygroup.ErrNotFound
	}
	if !r.val.IsMember(userID) {
		return studygroup.ErrNotMember
	}
	r.val.Members = core.RemoveString(r.val.Members, userID)
	return nil
}

func (repo *studyGroupRepository) DeleteGroup(_ context.Context, groupID, ownerID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r, ok := repo.db.table[groupID]
	if !ok || r.val.OwnerID != ownerID {
		return studygroup.ErrNotOwned
	}
	delete(repo.db.table, groupID)
	return nil
}
