package lostfound

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campusconnect/core"
)

// Item types
const (
	TypeLost  = "lost"
	TypeFound = "found"
)

// Item statuses
const (
	StatusOpen     = "open"
	StatusClosed   = "closed"
	StatusResolved = "resolved"
)

type Item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Location    string    `json:"location"`
	Contact     string    `json:"contact"`
	Date        time.Time `json:"date"` // UTC
	Status      string    `json:"status"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

// View is an Item as seen by a given user.
type View struct {
	Item
	IsOwner bool `json:"is_owner"`
}

func (it Item) ViewFor(userID string) View {
	return View{Item: it, IsOwner: userID != "" && it.UserID == userID}
}

// NewItem contains information needed to report a lost or found Item.
type NewItem struct {
	Title       string `json:"title" validate:"required,notblank,max=200"`
	Description string `json:"description" validate:"required,notblank,max=2000"`
	Type        string `json:"type" validate:"required,oneof=lost found"`
	Location    string `json:"location" validate:"required,notblank"`
	Contact     string `json:"contact" validate:"required,notblank"`
	Date        string `json:"date" validate:"required"`

	date time.Time
}

func (ni *NewItem) Validate(validate *validator.Validate) error {
	ni.Title = core.CleanString(ni.Title)
	ni.Description = core.CleanString(ni.Description)
	ni.Type = core.CleanString(ni.Type, true /* lower */)
	ni.Location = core.CleanString(ni.Location)
	ni.Contact = core.CleanString(ni.Contact)

	if err := validate.Struct(ni); err != nil {
		return err
	}
	date, err := core.ParseDate(ni.Date)
	if err != nil {
		return core.NewFieldValidationError("date", err.Error())
	}
	ni.date = date
	return nil
}

type StatusUpdate struct {
	Status string `json:"status" validate:"required,oneof=open closed resolved"`
}

func (su *StatusUpdate) Validate(validate *validator.Validate) error {
	su.Status = core.CleanString(su.Status, true /* lower */)
	return validate.Struct(su)
}
