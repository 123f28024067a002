package club

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campusconnect/core"
)

type Club struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	OwnerID     string            `json:"owner_id"`
	SocialLinks map[string]string `json:"social_links"`
	Members     []string          `json:"members"`
	CreatedAt   time.Time         `json:"created_at"` // UTC
}

func (c Club) IsMember(userID string) bool {
	return core.ContainsString(c.Members, userID)
}

// NewClub contains information needed to create a new Club.
type NewClub struct {
	Name        string            `json:"name" validate:"required,notblank,max=100"`
	Description string            `json:"description" validate:"max=2000"`
	SocialLinks map[string]string `json:"social_links" validate:"omitempty,dive,url"`
}

func (nc *NewClub) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	for k, v := range nc.SocialLinks {
		nc.SocialLinks[k] = core.CleanString(v)
	}
	return validate.Struct(nc)
}

// Membership identifies the club a user joins or leaves.
type Membership struct {
	ClubID string `json:"club_id" validate:"required"`
}

func (m Membership) Validate(validate *validator.Validate) error { return validate.Struct(m) }
