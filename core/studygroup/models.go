package studygroup

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campusconnect/core"
)

const (
	DefaultMaxMembers = 10
	MinMembers        = 2
	MaxMembers        = 50
)

type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Topic       string    `json:"topic"`
	Description string    `json:"description"`
	MeetingTime string    `json:"meeting_time"`
	MaxMembers  int       `json:"max_members"`
	OwnerID     string    `json:"owner_id"`
	Members     []string  `json:"members"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

func (g Group) IsMember(userID string) bool {
	return core.ContainsString(g.Members, userID)
}

func (g Group) IsFull() bool {
	return len(g.Members) >= g.MaxMembers
}

// NewGroup contains information needed to create a new Group.
type NewGroup struct {
	Name        string `json:"name" validate:"required,notblank,max=100"`
	Topic       string `json:"topic" validate:"required,notblank,max=100"`
	Description string `json:"description" validate:"required,max=2000"`
	MeetingTime string `json:"meeting_time" validate:"max=100"`
	MaxMembers  *int   `json:"max_members" validate:"omitempty,min=2,max=50"`
}

func (ng *NewGroup) Validate(validate *validator.Validate) error {
	ng.Name = core.CleanString(ng.Name)
	ng.Topic = core.CleanString(ng.Topic)
	ng.Description = core.CleanString(ng.Description)
	ng.MeetingTime = core.CleanString(ng.MeetingTime)
	return validate.Struct(ng)
}

func (ng NewGroup) maxMembers() int {
	if ng.MaxMembers == nil {
		return DefaultMaxMembers
	}
	return *ng.MaxMembers
}
