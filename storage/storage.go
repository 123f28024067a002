// Package storage opens the repositories of the configured database engine.
package storage

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/campusconnect/core"
	"github.com/trezcool/campusconnect/core/club"
	"github.com/trezcool/campusconnect/core/examtrend"
	"github.com/trezcool/campusconnect/core/lostfound"
	"github.com/trezcool/campusconnect/core/market"
	"github.com/trezcool/campusconnect/core/studygroup"
	"github.com/trezcool/campusconnect/core/user"
	"github.com/trezcool/campusconnect/storage/database"
	inmemdb "github.com/trezcool/campusconnect/storage/database/inmem"
	mongorepos "github.com/trezcool/campusconnect/storage/database/mongo"
	sqlxrepos "github.com/trezcool/campusconnect/storage/database/sqlx"
)

type Repos struct {
	Users       user.Repository
	Clubs       club.Repository
	StudyGroups studygroup.Repository
	LostFound   lostfound.Repository
	Listings    market.Repository
	ExamRecords examtrend.Repository

	close func() error
}

// Close releases the underlying database connections.
func (r Repos) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}

// Open sets up conf.Database.Engine: postgres databases are created and migrated when needed,
// mongodb collections get their indexes.
func Open(ctx context.Context, conf *core.Config) (Repos, error) {
	switch conf.Database.Engine {
	case core.EngineMemory, "":
		db := inmemdb.Open()
		return Repos{
			Users:       inmemdb.NewUserRepository(db),
			Clubs:       inmemdb.NewClubRepository(db),
			StudyGroups: inmemdb.NewStudyGroupRepository(db),
			LostFound:   inmemdb.NewLostFoundRepository(db),
			Listings:    inmemdb.NewListingRepository(db),
			ExamRecords: inmemdb.NewExamRecordRepository(db),
		}, nil

	case core.EnginePostgres:
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return Repos{}, err
		}
		db, err := database.Open(ctx, conf)
		if err != nil {
			return Repos{}, err
		}
		if err = database.Migrate(db.DB); err != nil {
			_ = db.Close()
			return Repos{}, err
		}
		return Repos{
			Users:       sqlxrepos.NewUserRepository(db),
			Clubs:       sqlxrepos.NewClubRepository(db),
			StudyGroups: sqlxrepos.NewStudyGroupRepository(db),
			LostFound:   sqlxrepos.NewLostFoundRepository(db),
			Listings:    sqlxrepos.NewListingRepository(db),
			ExamRecords: sqlxrepos.NewExamRecordRepository(db),
			close:       db.Close,
		}, nil

	case core.EngineMongo:
		db, err := mongorepos.Open(ctx, conf)
		if err != nil {
			return Repos{}, err
		}
		if err = mongorepos.EnsureIndexes(ctx, db); err != nil {
			_ = mongorepos.Close(context.Background(), db)
			return Repos{}, err
		}
		return Repos{
			Users:       mongorepos.NewUserRepository(db),
			Clubs:       mongorepos.NewClubRepository(db),
			StudyGroups: mongorepos.NewStudyGroupRepository(db),
			LostFound:   mongorepos.NewLostFoundRepository(db),
			Listings:    mongorepos.NewListingRepository(db),
			ExamRecords: mongorepos.NewExamRecordRepository(db),
			close:       func() error { return mongorepos.Close(context.Background(), db) },
		}, nil
	}
	return Repos{}, errors.Errorf("unknown database engine %q", conf.Database.Engine)
}
