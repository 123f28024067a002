package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/campusconnect/core/studygroup"
)

type studyGroupRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Topic       string    `db:"topic"`
	Description string    `db:"description"`
	MeetingTime string    `db:"meeting_time"`
	MaxMembers  int       `db:"max_members"`
	OwnerID     string    `db:"owner_id"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r studyGroupRow) group(members []string) studygroup.Group {
	if members == nil {
		members = []string{}
	}
	return studygroup.Group{
		ID:          r.ID,
		Name:        r.Name,
		Topic:       r.Topic,
		Description: r.Description,
		MeetingTime: r.MeetingTime,
		MaxMembers:  r.MaxMembers,
		OwnerID:     r.OwnerID,
		Members:     members,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type studyGroupRepository struct {
	db *sqlx.DB
}

var _ studygroup.Repository = (*studyGroupRepository)(nil) // interface compliance check

func NewStudyGroupRepository(db *sqlx.DB) studygroup.Repository {
	return &studyGroupRepository{db: db}
}

const studyGroupColumns = `id, name, topic, description, meeting_time, max_members, owner_id, created_at`

func (repo *studyGroupRepository) CreateGroup(ctx context.Context, g studygroup.Group) (studygroup.Group, error) {
	g.ID = uuid.New().String()
	r := studyGroupRow{
		ID:          g.ID,
		Name:        g.Name,
		Topic:       g.Topic,
		Description: g.Description,
		MeetingTime: g.MeetingTime,
		MaxMembers:  g.MaxMembers,
		OwnerID:     g.OwnerID,
		CreatedAt:   g.CreatedAt.UTC(),
	}

	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := `INSERT INTO study_groups (` + studyGroupColumns + `)
			VALUES (:id, :name, :topic, :description, :meeting_time, :max_members, :owner_id, :created_at)`
		if _, err := tx.NamedExecContext(ctx, q, r); err != nil {
			return errors.Wrap(err, "inserting study group")
		}
		for _, userID := range g.Members {
			q := `INSERT INTO study_group_members (group_id, user_id, joined_at) VALUES ($1, $2, $3)`
			if _, err := tx.ExecContext(ctx, q, g.ID, userID, r.CreatedAt); err != nil {
				return errors.Wrap(err, "inserting study group member")
			}
		}
		return nil
	})
	if err != nil {
		return studygroup.Group{}, err
	}
	return g, nil
}

func (repo *studyGroupRepository) members(ctx context.Context, ids ...string) (map[string][]string, error) {
	members := make(map[string][]string, len(ids))
	if len(ids) == 0 {
		return members, nil
	}
	q, args, err := sqlx.In(`SELECT group_id AS parent_id, user_id FROM study_group_members WHERE group_id IN (?) ORDER BY joined_at`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building members query")
	}
	var rows []memberRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying study group members")
	}
	for _, m := range rows {
		members[m.ParentID] = append(members[m.ParentID], m.UserID)
	}
	return members, nil
}

func (repo *studyGroupRepository) QueryGroups(ctx context.Context) ([]studygroup.Group, error) {
	var rows []studyGroupRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT `+studyGroupColumns+` FROM study_groups ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying study groups")
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	members, err := repo.members(ctx, ids...)
	if err != nil {
		return nil, err
	}

	groups := make([]studygroup.Group, len(rows))
	for i, r := range rows {
		groups[i] = r.group(members[r.ID])
	}
	return groups, nil
}

func (repo *studyGroupRepository) GetGroup(ctx context.Context, id string) (studygroup.Group, error) {
	if !validID(id) {
		return studygroup.Group{}, studygroup.ErrNotFound
	}
	var r studyGroupRow
	if err := repo.db.GetContext(ctx, &r, `SELECT `+studyGroupColumns+` FROM study_groups WHERE id = $1`, id); err != nil {
		return studygroup.Group{}, trapNoRowsErr(err, studygroup.ErrNotFound, "finding study group")
	}
	members, err := repo.members(ctx, id)
	if err != nil {
		return studygroup.Group{}, err
	}
	return r.group(members[id]), nil
}

// AddMember locks the group row so that concurrent joins cannot exceed max_members.
func (repo *studyGroupRepository) AddMember(ctx context.Context, groupID, userID string) error {
	if !validID(groupID) {
		return studygroup.ErrNotFound
	}
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var maxMembers int
		err := tx.GetContext(ctx, &maxMembers, `SELECT max_members FROM study_groups WHERE id = $1 FOR UPDATE`, groupID)
		if err != nil {
			return trapNoRowsErr(err, studygroup.ErrNotFound, "locking study group")
		}

		var count int
		var isMember bool
		q := `SELECT COUNT(*), COALESCE(BOOL_OR(user_id = $2), FALSE) FROM study_group_members WHERE group_id = $1`
		if err = tx.QueryRowxContext(ctx, q, groupID, userID).Scan(&count, &isMember); err != nil {
			return errors.Wrap(err, "counting study group members")
		}
		switch {
		case isMember:
			return studygroup.ErrAlreadyMember
		case count >= maxMembers:
			return studygroup.ErrFull
		}

		q = `INSERT INTO study_group_members (group_id, user_id, joined_at) VALUES ($1, $2, $3)`
		if _, err = tx.ExecContext(ctx, q, groupID, userID, time.Now().UTC()); err != nil {
			return errors.Wrap(err, "inserting study group member")
		}
		return nil
	})
}

func (repo *studyGroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	if !validID(groupID) {
		return studygroup.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM study_group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return errors.Wrap(err, "deleting study group member")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return studygroup.ErrNotMember
	}
	return nil
}

func (repo *studyGroupRepository) DeleteGroup(ctx context.Context, groupID, ownerID string) error {
	if !validID(groupID) {
		return studygroup.ErrNotOwned
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM study_groups WHERE id = $1 AND owner_id = $2`, groupID, ownerID)
	if err != nil {
		return errors.Wrap(err, "deleting study group")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return studygroup.ErrNotOwned
	}
	return nil
}
