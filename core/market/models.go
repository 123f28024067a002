package market

import (
	"io"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campusconnect/core"
)

type Listing struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Condition   string    `json:"condition"`
	Category    string    `json:"category"`
	Contact     string    `json:"contact"`
	Images      []string  `json:"images"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// View is a Listing as seen by a given user.
type View struct {
	Listing
	IsOwner bool `json:"is_owner"`
}

func (l Listing) ViewFor(userID string) View {
	return View{Listing: l, IsOwner: userID != "" && l.UserID == userID}
}

// NewListing contains information needed to put an item up for sale.
type NewListing struct {
	Title       string   `json:"title" validate:"required,notblank,max=200"`
	Description string   `json:"description" validate:"required,notblank,max=2000"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Condition   string   `json:"condition" validate:"required,notblank"`
	Category    string   `json:"category" validate:"required,notblank"`
	Contact     string   `json:"contact" validate:"required,notblank"`
}

func (nl *NewListing) Validate(validate *validator.Validate) error {
	nl.Title = core.CleanString(nl.Title)
	nl.Description = core.CleanString(nl.Description)
	nl.Condition = core.CleanString(nl.Condition)
	nl.Category = core.CleanString(nl.Category)
	nl.Contact = core.CleanString(nl.Contact)
	return validate.Struct(nl)
}

// UpdateListing holds the fields to change; nil fields are left untouched.
type UpdateListing struct {
	Title       *string  `json:"title" validate:"omitempty,notblank,max=200"`
	Description *string  `json:"description" validate:"omitempty,notblank,max=2000"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Condition   *string  `json:"condition" validate:"omitempty,notblank"`
	Category    *string  `json:"category" validate:"omitempty,notblank"`
	Contact     *string  `json:"contact" validate:"omitempty,notblank"`
}

func (ul *UpdateListing) Validate(validate *validator.Validate) error {
	for _, s := range []*string{ul.Title, ul.Description, ul.Condition, ul.Category, ul.Contact} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	return validate.Struct(ul)
}

// apply reports whether any field of l changed.
func (ul UpdateListing) apply(l *Listing) bool {
	changed := false
	setString := func(dst *string, src *string) {
		if src != nil && *src != *dst {
			*dst = *src
			changed = true
		}
	}
	setString(&l.Title, ul.Title)
	setString(&l.Description, ul.Description)
	setString(&l.Condition, ul.Condition)
	setString(&l.Category, ul.Category)
	setString(&l.Contact, ul.Contact)
	if ul.Price != nil && *ul.Price != l.Price {
		l.Price = *ul.Price
		changed = true
	}
	return changed
}

// Image is an uploaded listing picture.
type Image struct {
	Filename string
	Content  io.Reader
}
