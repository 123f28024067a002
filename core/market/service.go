package market

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/campusconnect/core"
)

var (
	// ErrNotFound is also returned when the listing belongs to another user.
	ErrNotFound  = errors.New("Item not found or unauthorized")
	ErrNoChanges = errors.New("No changes made to the item")
	ErrNoImages  = errors.New("No images provided")

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateListing(ctx context.Context, l Listing) (Listing, error)
		// QueryListings returns every listing, newest first.
		QueryListings(ctx context.Context) ([]Listing, error)
		// GetListing fails with ErrNotFound unless userID owns the listing.
		GetListing(ctx context.Context, id, userID string) (Listing, error)
		// UpdateListing saves every field of l but ID, UserID, Images and CreatedAt.
		UpdateListing(ctx context.Context, l Listing) (Listing, error)
		AddImages(ctx context.Context, id, userID string, paths []string) (Listing, error)
		// DeleteListing fails with ErrNotFound unless userID owns the listing.
		DeleteListing(ctx context.Context, id, userID string) (Listing, error)
	}

	// ImageStore keeps listing pictures and returns the public path of each.
	ImageStore interface {
		Save(filename string, src io.Reader) (string, error)
		Delete(path string) error
	}

	Service struct {
		repo   Repository
		images ImageStore
	}
)

func NewService(repo Repository, images ImageStore) *Service {
	return &Service{repo: repo, images: images}
}

// Create lists a new item. nl must be valid.
func (svc *Service) Create(ctx context.Context, userID string, nl NewListing) (Listing, error) {
	now := NowFunc().UTC()
	l, err := svc.repo.CreateListing(ctx, Listing{
		Title:       nl.Title,
		Description: nl.Description,
		Price:       *nl.Price,
		Condition:   nl.Condition,
		Category:    nl.Category,
		Contact:     nl.Contact,
		Images:      []string{},
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Listing{}, errors.Wrap(err, "creating listing")
	}
	return l, nil
}

// List returns every listing flagged with whether viewerID owns it; viewerID may be empty.
func (svc *Service) List(ctx context.Context, viewerID string) ([]View, error) {
	listings, err := svc.repo.QueryListings(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying listings")
	}
	views := make([]View, len(listings))
	for i, l := range listings {
		views[i] = l.ViewFor(viewerID)
	}
	return views, nil
}

// Update fails with ErrNoChanges when ul leaves the listing as it is. ul must be valid.
func (svc *Service) Update(ctx context.Context, id, userID string, ul UpdateListing) (Listing, error) {
	l, err := svc.repo.GetListing(ctx, id, userID)
	if err != nil {
		return Listing{}, err
	}
	if !ul.apply(&l) {
		return Listing{}, ErrNoChanges
	}
	l.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateListing(ctx, l)
}

// AddImages stores the images and attaches them to the listing.
// Nothing is kept when one of them cannot be stored.
func (svc *Service) AddImages(ctx context.Context, id, userID string, images []Image) (Listing, error) {
	if len(images) == 0 {
		return Listing{}, core.NewFieldValidationError("images", ErrNoImages.Error())
	}
	if _, err := svc.repo.GetListing(ctx, id, userID); err != nil {
		return Listing{}, err
	}

	paths := make([]string, 0, len(images))
	for _, img := range images {
		path, err := svc.images.Save(img.Filename, img.Content)
		if err != nil {
			svc.deleteImages(paths)
			return Listing{}, err
		}
		paths = append(paths, path)
	}

	l, err := svc.repo.AddImages(ctx, id, userID, paths)
	if err != nil {
		svc.deleteImages(paths)
		return Listing{}, err
	}
	return l, nil
}

// Delete removes the listing along with its images.
func (svc *Service) Delete(ctx context.Context, id, userID string) error {
	l, err := svc.repo.DeleteListing(ctx, id, userID)
	if err != nil {
		return err
	}
	svc.deleteImages(l.Images)
	return nil
}

func (svc *Service) deleteImages(paths []string) {
	for _, p := range paths {
		_ = svc.images.Delete(p)
	}
}
