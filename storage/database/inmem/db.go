package inmemdb

import (
	"sort"
	"sync"
	"time"

	"github.com/trezcool/campusconnect/core/club"
	"github.com/trezcool/campusconnect/core/examtrend"
	"github.com/trezcool/campusconnect/core/lostfound"
	"github.com/trezcool/campusconnect/core/market"
	"github.com/trezcool/campusconnect/core/studygroup"
	"github.com/trezcool/campusconnect/core/user"
)

// DB keeps every table in memory. It is meant for tests and local runs.
type DB struct {
	user       *userTable
	club       *clubTable
	studyGroup *studyGroupTable
	lostFound  *lostFoundTable
	listing    *listingTable
	examRecord *examRecordTable
}

type (
	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	clubTable struct {
		table map[string]*row[club.Club]
		seq   int
		mutex sync.RWMutex
	}

	studyGroupTable struct {
		table map[string]*row[studygroup.Group]
		seq   int
		mutex sync.RWMutex
	}

	lostFoundTable struct {
		table map[string]*row[lostfound.Item]
		seq   int
		mutex sync.RWMutex
	}

	listingTable struct {
		table map[string]*row[market.Listing]
		seq   int
		mutex sync.RWMutex
	}

	examRecordTable struct {
		table map[string]*row[examtrend.Record]
		seq   int
		mutex sync.RWMutex
	}
)

// row remembers the insertion order of a stored value to break ordering ties.
type row[T any] struct {
	val T
	seq int
}

func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		club:       &clubTable{table: make(map[string]*row[club.Club])},
		studyGroup: &studyGroupTable{table: make(map[string]*row[studygroup.Group])},
		lostFound:  &lostFoundTable{table: make(map[string]*row[lostfound.Item])},
		listing:    &listingTable{table: make(map[string]*row[market.Listing])},
		examRecord: &examRecordTable{table: make(map[string]*row[examtrend.Record])},
	}
}

// sortedDesc returns the values of rows sorted by key, latest first, then by latest insertion.
func sortedDesc[T any](rows map[string]*row[T], key func(T) time.Time) []T {
	list := make([]*row[T], 0, len(rows))
	for _, r := range rows {
		list = append(list, r)
	}
	sort.Slice(list, func(i, j int) bool {
		ki, kj := key(list[i].val), key(list[j].val)
		if !ki.Equal(kj) {
			return ki.After(kj)
		}
		return list[i].seq > list[j].seq
	})

	vals := make([]T, len(list))
	for i, r := range list {
		vals[i] = r.val
	}
	return vals
}

func cloneStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	c := make([]string, len(s))
	copy(c, s)
	return c
}
