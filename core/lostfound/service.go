package lostfound

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is also returned when the item belongs to another user.
	ErrNotFound = errors.New("Item not found or unauthorized")

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateItem(ctx context.Context, it Item) (Item, error)
		// QueryItems returns every item, newest first.
		QueryItems(ctx context.Context) ([]Item, error)
		// UpdateItemStatus fails with ErrNotFound unless userID owns the item.
		UpdateItemStatus(ctx context.Context, itemID, userID, status string) (Item, error)
		// DeleteItem fails with ErrNotFound unless userID owns the item.
		DeleteItem(ctx context.Context, itemID, userID string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create reports a new open item. ni must be valid.
func (svc *Service) Create(ctx context.Context, userID string, ni NewItem) (Item, error) {
	it, err := svc.repo.CreateItem(ctx, Item{
		Title:       ni.Title,
		Description: ni.Description,
		Type:        ni.Type,
		Location:    ni.Location,
		Contact:     ni.Contact,
		Date:        ni.date,
		Status:      StatusOpen,
		UserID:      userID,
		CreatedAt:   NowFunc().UTC(),
	})
	if err != nil {
		return Item{}, errors.Wrap(err, "creating item")
	}
	return it, nil
}

// List returns every item flagged with whether viewerID owns it; viewerID may be empty.
func (svc *Service) List(ctx context.Context, viewerID string) ([]View, error) {
	items, err := svc.repo.QueryItems(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying items")
	}
	views := make([]View, len(items))
	for i, it := range items {
		views[i] = it.ViewFor(viewerID)
	}
	return views, nil
}

func (svc *Service) UpdateStatus(ctx context.Context, itemID, userID string, su StatusUpdate) (Item, error) {
	return svc.repo.UpdateItemStatus(ctx, itemID, userID, su.Status)
}

func (svc *Service) Delete(ctx context.Context, itemID, userID string) error {
	return svc.repo.DeleteItem(ctx, itemID, userID)
}
