package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/campusconnect/core/market"
)

type listingRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Price       float64        `db:"price"`
	Condition   string         `db:"condition"`
	Category    string         `db:"category"`
	Contact     string         `db:"contact"`
	Images      pq.StringArray `db:"images"`
	UserID      string         `db:"user_id"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func toListingRow(l market.Listing) listingRow {
	images := l.Images
	if images == nil {
		images = []string{}
	}
	return listingRow{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Condition:   l.Condition,
		Category:    l.Category,
		Contact:     l.Contact,
		Images:      pq.StringArray(images),
		UserID:      l.UserID,
		CreatedAt:   l.CreatedAt.UTC(),
		UpdatedAt:   l.UpdatedAt.UTC(),
	}
}

func (r listingRow) listing() market.Listing {
	images := []string(r.Images)
	if images == nil {
		images = []string{}
	}
	return market.Listing{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Condition:   r.Condition,
		Category:    r.Category,
		Contact:     r.Contact,
		Images:      images,
		UserID:      r.UserID,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type listingRepository struct {
	db *sqlx.DB
}

var _ market.Repository = (*listingRepository)(nil) // interface compliance check

func NewListingRepository(db *sqlx.DB) market.Repository {
	return &listingRepository{db: db}
}

const listingColumns = `id, title, description, price, condition, category, contact, images, user_id, created_at, updated_at`

func (repo *listingRepository) CreateListing(ctx context.Context, l market.Listing) (market.Listing, error) {
	l.ID = uuid.New().String()
	q := `INSERT INTO listings (` + listingColumns + `)
		VALUES (:id, :title, :description, :price, :condition, :category, :contact, :images, :user_id, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toListingRow(l)); err != nil {
		return market.Listing{}, errors.Wrap(err, "inserting listing")
	}
	return l, nil
}

func (repo *listingRepository) QueryListings(ctx context.Context) ([]market.Listing, error) {
	var rows []listingRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT `+listingColumns+` FROM listings ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying listings")
	}
	listings := make([]market.Listing, len(rows))
	for i, r := range rows {
		listings[i] = r.listing()
	}
	return listings, nil
}

func (repo *listingRepository) GetListing(ctx context.Context, id, userID string) (market.Listing, error) {
	if !validID(id) {
		return market.Listing{}, market.ErrNotFound
	}
	var r listingRow
	q := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1 AND user_id = $2`
	if err := repo.db.GetContext(ctx, &r, q, id, userID); err != nil {
		return market.Listing{}, trapNoRowsErr(err, market.ErrNotFound, "finding listing")
	}
	return r.listing(), nil
}

func (repo *listingRepository) UpdateListing(ctx context.Context, l market.Listing) (market.Listing, error) {
	if !validID(l.ID) {
		return market.Listing{}, market.ErrNotFound
	}
	q := `UPDATE listings SET
			title = :title, description = :description, price = :price, condition = :condition,
			category = :category, contact = :contact, updated_at = :updated_at
		WHERE id = :id AND user_id = :user_id`
	res, err := repo.db.NamedExecContext(ctx, q, toListingRow(l))
	if err != nil {
		return market.Listing{}, errors.Wrap(err, "updating listing")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return market.Listing{}, market.ErrNotFound
	}
	return repo.GetListing(ctx, l.ID, l.UserID)
}

func (repo *listingRepository) AddImages(ctx context.Context, id, userID string, paths []string) (market.Listing, error) {
	if !validID(id) {
		return market.Listing{}, market.ErrNotFound
	}
	var r listingRow
	q := `UPDATE listings SET images = images || $3::TEXT[] WHERE id = $1 AND user_id = $2 RETURNING ` + listingColumns
	if err := repo.db.GetContext(ctx, &r, q, id, userID, pq.StringArray(paths)); err != nil {
		return market.Listing{}, trapNoRowsErr(err, market.ErrNotFound, "adding listing images")
	}
	return r.listing(), nil
}

func (repo *listingRepository) DeleteListing(ctx context.Context, id, userID string) (market.Listing, error) {
	if !validID(id) {
		return market.Listing{}, market.ErrNotFound
	}
	var r listingRow
	q := `DELETE FROM listings WHERE id = $1 AND user_id = $2 RETURNING ` + listingColumns
	if err := repo.db.GetContext(ctx, &r, q, id, userID); err != nil {
		return market.Listing{}, trapNoRowsErr(err, market.ErrNotFound, "deleting listing")
	}
	return r.listing(), nil
}
