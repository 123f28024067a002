package studygroup

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound         = errors.New("Group not found")
	ErrAlreadyMember    = errors.New("Already a member of this group")
	ErrNotMember        = errors.New("Not a member of this group")
	ErrFull             = errors.New("Group is full")
	ErrOwnerCannotLeave = errors.New("Group owner cannot leave the group")
	ErrNotOwned         = errors.New("Group not found or unauthorized")

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateGroup(ctx context.Context, g Group) (Group, error)
		// QueryGroups returns every group, newest first.
		QueryGroups(ctx context.Context) ([]Group, error)
		GetGroup(ctx context.Context, id string) (Group, error)
		// AddMember fails with ErrAlreadyMember or ErrFull, checked atomically with the insertion.
		AddMember(ctx context.Context, groupID, userID string) error
		// RemoveMember fails with ErrNotMember when userID does not belong to the group.
		RemoveMember(ctx context.Context, groupID, userID string) error
		// DeleteGroup removes the group only if ownerID owns it, else fails with ErrNotOwned.
		DeleteGroup(ctx context.Context, groupID, ownerID string) error
	}

	Service interface {
		Create(ctx context.Context, ownerID string, ng NewGroup) (Group, error)
		List(ctx context.Context) ([]Group, error)
		Join(ctx context.Context, groupID, userID string) error
		Leave(ctx context.Context, groupID, userID string) error
		Delete(ctx context.Context, groupID, userID string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Create makes the owner the first member of the group. ng must be valid.
func (svc *service) Create(ctx context.Context, ownerID string, ng NewGroup) (Group, error) {
	g, err := svc.repo.CreateGroup(ctx, Group{
		Name:        ng.Name,
		Topic:       ng.Topic,
		Description: ng.Description,
		MeetingTime: ng.MeetingTime,
		MaxMembers:  ng.maxMembers(),
		OwnerID:     ownerID,
		Members:     []string{ownerID},
		CreatedAt:   NowFunc().UTC(),
	})
	if err != nil {
		return Group{}, errors.Wrap(err, "creating group")
	}
	return g, nil
}

func (svc *service) List(ctx context.Context) ([]Group, error) {
	groups, err := svc.repo.QueryGroups(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}
	return groups, nil
}

func (svc *service) Join(ctx context.Context, groupID, userID string) error {
	g, err := svc.repo.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	switch {
	case g.IsMember(userID):
		return ErrAlreadyMember
	case g.IsFull():
		return ErrFull
	}
	return svc.repo.AddMember(ctx, g.ID, userID)
}

func (svc *service) Leave(ctx context.Context, groupID, userID string) error {
	g, err := svc.repo.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if g.OwnerID == userID {
		return ErrOwnerCannotLeave
	}
	if !g.IsMember(userID) {
		return ErrNotMember
	}
	return svc.repo.RemoveMember(ctx, g.ID, userID)
}

func (svc *service) Delete(ctx context.Context, groupID, userID string) error {
	return svc.repo.DeleteGroup(ctx, groupID, userID)
}
