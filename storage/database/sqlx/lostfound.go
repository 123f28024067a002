package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/campusconnect/core/lostfound"
)

type lostFoundRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Type        string    `db:"type"`
	Location    string    `db:"location"`
	Contact     string    `db:"contact"`
	Date        time.Time `db:"date"`
	Status      string    `db:"status"`
	UserID      string    `db:"user_id"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r lostFoundRow) item() lostfound.Item {
	return lostfound.Item{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Type:        r.Type,
		Location:    r.Location,
		Contact:     r.Contact,
		Date:        r.Date.UTC(),
		Status:      r.Status,
		UserID:      r.UserID,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type lostFoundRepository struct {
	db *sqlx.DB
}

var _ lostfound.Repository = (*lostFoundRepository)(nil) // interface compliance check

func NewLostFoundRepository(db *sqlx.DB) lostfound.Repository {
	return &lostFoundRepository{db: db}
}

const lostFoundColumns = `id, title, description, type, location, contact, date, status, user_id, created_at`

func (repo *lostFoundRepository) CreateItem(ctx context.Context, it lostfound.Item) (lostfound.Item, error) {
	it.ID = uuid.New().String()
	r := lostFoundRow{
		ID:          it.ID,
		Title:       it.Title,
		Description: it.Description,
		Type:        it.Type,
		Location:    it.Location,
		Contact:     it.Contact,
		Date:        it.Date.UTC(),
		Status:      it.Status,
		UserID:      it.UserID,
		CreatedAt:   it.CreatedAt.UTC(),
	}
	q := `INSERT INTO lost_found_items (` + lostFoundColumns + `)
		VALUES (:id, :title, :description, :type, :location, :contact, :date, :status, :user_id, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, r); err != nil {
		return lostfound.Item{}, errors.Wrap(err, "inserting lost & found item")
	}
	return it, nil
}

func (repo *lostFoundRepository) QueryItems(ctx context.Context) ([]lostfound.Item, error) {
	var rows []lostFoundRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT `+lostFoundColumns+` FROM lost_found_items ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying lost & found items")
	}
	items := make([]lostfound.Item, len(rows))
	for i, r := range rows {
		items[i] = r.item()
	}
	return items, nil
}

func (repo *lostFoundRepository) UpdateItemStatus(ctx context.Context, itemID, userID, status string) (lostfound.Item, error) {
	if !validID(itemID) {
		return lostfound.Item{}, lostfound.ErrNotFound
	}
	var r lostFoundRow
	q := `UPDATE lost_found_items SET status = $3 WHERE id = $1 AND user_id = $2 RETURNING ` + lostFoundColumns
	if err := repo.db.GetContext(ctx, &r, q, itemID, userID, status); err != nil {
		return lostfound.Item{}, trapNoRowsErr(err, lostfound.ErrNotFound, "updating lost & found item status")
	}
	return r.item(), nil
}

func (repo *lostFoundRepository) DeleteItem(ctx context.Context, itemID, userID string) error {
	if !validID(itemID) {
		return lostfound.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM lost_found_items WHERE id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return errors.Wrap(err, "deleting lost & found item")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return lostfound.ErrNotFound
	}
	return nil
}
