package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/trezcool/campusconnect/core/club"
)

type clubRow struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Description string         `db:"description"`
	OwnerID     string         `db:"owner_id"`
	SocialLinks types.JSONText `db:"social_links"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (r clubRow) club(members []string) (club.Club, error) {
	links := make(map[string]string)
	if len(r.SocialLinks) > 0 {
		if err := r.SocialLinks.Unmarshal(&links); err != nil {
			return club.Club{}, errors.Wrap(err, "decoding social links")
		}
	}
	if members == nil {
		members = []string{}
	}
	return club.Club{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		OwnerID:     r.OwnerID,
		SocialLinks: links,
		Members:     members,
		CreatedAt:   r.CreatedAt.UTC(),
	}, nil
}

type memberRow struct {
	ParentID string `db:"parent_id"`
	UserID   string `db:"user_id"`
}

type clubRepository struct {
	db *sqlx.DB
}

var _ club.Repository = (*clubRepository)(nil) // interface compliance check

func NewClubRepository(db *sqlx.DB) club.Repository {
	return &clubRepository{db: db}
}

const clubColumns = `id, name, description, owner_id, social_links, created_at`

func (repo *clubRepository) CreateClub(ctx context.Context, c club.Club) (club.Club, error) {
	c.ID = uuid.New().String()
	links, err := json.Marshal(c.SocialLinks)
	if err != nil {
		return club.Club{}, errors.Wrap(err, "encoding social links")
	}
	r := clubRow{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		OwnerID:     c.OwnerID,
		SocialLinks: types.JSONText(links),
		CreatedAt:   c.CreatedAt.UTC(),
	}

	err = inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := `INSERT INTO clubs (` + clubColumns + `) VALUES (:id, :name, :description, :owner_id, :social_links, :created_at)`
		if _, err := tx.NamedExecContext(ctx, q, r); err != nil {
			if pqCode(err) == uniqueViolation {
				return club.ErrNameExists
			}
			return errors.Wrap(err, "inserting club")
		}
		for _, userID := range c.Members {
			q := `INSERT INTO club_members (club_id, user_id, joined_at) VALUES ($1, $2, $3)`
			if _, err := tx.ExecContext(ctx, q, c.ID, userID, r.CreatedAt); err != nil {
				return errors.Wrap(err, "inserting club member")
			}
		}
		return nil
	})
	if err != nil {
		return club.Club{}, err
	}
	return c, nil
}

func (repo *clubRepository) members(ctx context.Context, ids ...string) (map[string][]string, error) {
	members := make(map[string][]string, len(ids))
	if len(ids) == 0 {
		return members, nil
	}
	q, args, err := sqlx.In(`SELECT club_id AS parent_id, user_id FROM club_members WHERE club_id IN (?) ORDER BY joined_at`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building members query")
	}
	var rows []memberRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying club members")
	}
	for _, m := range rows {
		members[m.ParentID] = append(members[m.ParentID], m.UserID)
	}
	return members, nil
}

func (repo *clubRepository) QueryClubs(ctx context.Context) ([]club.Club, error) {
	var rows []clubRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT `+clubColumns+` FROM clubs ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying clubs")
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	members, err := repo.members(ctx, ids...)
	if err != nil {
		return nil, err
	}

	clubs := make([]club.Club, 0, len(rows))
	for _, r := range rows {
		c, err := r.club(members[r.ID])
		if err != nil {
			return nil, err
		}
		clubs = append(clubs, c)
	}
	return clubs, nil
}

func (repo *clubRepository) GetClub(ctx context.Context, id string) (club.Club, error) {
	if !validID(id) {
		return club.Club{}, club.ErrNotFound
	}
	var r clubRow
	if err := repo.db.GetContext(ctx, &r, `SELECT `+clubColumns+` FROM clubs WHERE id = $1`, id); err != nil {
		return club.Club{}, trapNoRowsErr(err, club.ErrNotFound, "finding club")
	}
	members, err := repo.members(ctx, id)
	if err != nil {
		return club.Club{}, err
	}
	return r.club(members[id])
}

func (repo *clubRepository) AddMember(ctx context.Context, clubID, userID string) error {
	if !validID(clubID) {
		return club.ErrNotFound
	}
	q := `INSERT INTO club_members (club_id, user_id, joined_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`
	res, err := repo.db.ExecContext(ctx, q, clubID, userID, time.Now().UTC())
	if err != nil {
		if pqCode(err) == foreignKeyViolation {
			return club.ErrNotFound
		}
		return errors.Wrap(err, "inserting club member")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return club.ErrAlreadyMember
	}
	return nil
}

func (repo *clubRepository) RemoveMember(ctx context.Context, clubID, userID string) error {
	if !validID(clubID) {
		return club.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM club_members WHERE club_id = $1 AND user_id = $2`, clubID, userID)
	if err != nil {
		return errors.Wrap(err, "deleting club member")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return club.ErrNotMember
	}
	return nil
}
