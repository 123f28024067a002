package club

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/campusconnect/core"
)

var (
	// errors
	ErrNotFound         = errors.New("Club not found")
	ErrNameExists       = errors.New("A club with this name already exists")
	ErrAlreadyMember    = errors.New("Already a member of this club")
	ErrNotMember        = errors.New("Not a member of this club")
	ErrOwnerCannotLeave = errors.New("Club owner cannot leave the club")

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		// CreateClub fails with ErrNameExists when the name is taken.
		CreateClub(ctx context.Context, c Club) (Club, error)
		// QueryClubs returns every club, newest first.
		QueryClubs(ctx context.Context) ([]Club, error)
		GetClub(ctx context.Context, id string) (Club, error)
		// AddMember fails with ErrAlreadyMember when userID already belongs to the club.
		AddMember(ctx context.Context, clubID, userID string) error
		// RemoveMember fails with ErrNotMember when userID does not belong to the club.
		RemoveMember(ctx context.Context, clubID, userID string) error
	}

	Service interface {
		Create(ctx context.Context, ownerID string, nc NewClub) (Club, error)
		List(ctx context.Context) ([]Club, error)
		Join(ctx context.Context, clubID, userID string) error
		Leave(ctx context.Context, clubID, userID string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Create makes the owner the first member of the club. nc must be valid.
func (svc *service) Create(ctx context.Context, ownerID string, nc NewClub) (Club, error) {
	links := nc.SocialLinks
	if links == nil {
		links = make(map[string]string)
	}
	c, err := svc.repo.CreateClub(ctx, Club{
		Name:        nc.Name,
		Description: nc.Description,
		OwnerID:     ownerID,
		SocialLinks: links,
		Members:     []string{ownerID},
		CreatedAt:   NowFunc().UTC(),
	})
	if err != nil {
		if errors.Cause(err) == ErrNameExists {
			return Club{}, core.NewValidationError(ErrNameExists, core.FieldError{Field: "name", Error: ErrNameExists.Error()})
		}
		return Club{}, errors.Wrap(err, "creating club")
	}
	return c, nil
}

func (svc *service) List(ctx context.Context) ([]Club, error) {
	clubs, err := svc.repo.QueryClubs(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying clubs")
	}
	return clubs, nil
}

func (svc *service) Join(ctx context.Context, clubID, userID string) error {
	c, err := svc.repo.GetClub(ctx, clubID)
	if err != nil {
		return err
	}
	if c.IsMember(userID) {
		return ErrAlreadyMember
	}
	return svc.repo.AddMember(ctx, c.ID, userID)
}

func (svc *service) Leave(ctx context.Context, clubID, userID string) error {
	c, err := svc.repo.GetClub(ctx, clubID)
	if err != nil {
		return err
	}
	if c.OwnerID == userID {
		return ErrOwnerCannotLeave
	}
	if !c.IsMember(userID) {
		return ErrNotMember
	}
	return svc.repo.RemoveMember(ctx, c.ID, userID)
}
