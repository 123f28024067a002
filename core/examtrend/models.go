package examtrend

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campusconnect/core"
)

// Record is a single exam result logged by a user.
type Record struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Subject    string    `json:"subject"`
	Topic      string    `json:"topic"`
	Difficulty string    `json:"difficulty"`
	StudyHours float64   `json:"study_hours"`
	Grade      float64   `json:"grade"`
	Date       time.Time `json:"date"`       // UTC
	CreatedAt  time.Time `json:"created_at"` // UTC
}

// Insight summarizes how study time relates to grades for one subject.
type Insight struct {
	Subject           string   `json:"subject"`
	AvgGrade          float64  `json:"avg_grade"`
	AvgStudyHours     float64  `json:"avg_study_hours"`
	OptimalStudyHours float64  `json:"optimal_study_hours"`
	Topics            []string `json:"topics"`
	Recommendation    string   `json:"recommendation"`
}

// NewRecord contains information needed to log a new Record.
// Numbers are pointers so that a missing value can be told apart from 0.
type NewRecord struct {
	Subject    string   `json:"subject" validate:"required,notblank"`
	Topic      string   `json:"topic" validate:"required,notblank"`
	Difficulty string   `json:"difficulty" validate:"required,notblank"`
	StudyHours *float64 `json:"study_hours" validate:"required,gte=0"`
	Grade      *float64 `json:"grade" validate:"required,gte=0,lte=100"`
	Date       string   `json:"date" validate:"required"`

	date time.Time
}

// UnmarshalJSON also reads study hours from the camelCase "studyHours" key.
// "study_hours" wins when a body carries both.
func (nr *NewRecord) UnmarshalJSON(data []byte) error {
	type plain NewRecord
	aux := struct {
		*plain
		StudyHoursCamel *float64 `json:"studyHours"`
	}{plain: (*plain)(nr)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if nr.StudyHours == nil {
		nr.StudyHours = aux.StudyHoursCamel
	}
	return nil
}

func (nr *NewRecord) Validate(validate *validator.Validate) error {
	nr.Subject = core.CleanString(nr.Subject)
	nr.Topic = core.CleanString(nr.Topic)
	nr.Difficulty = core.CleanString(nr.Difficulty)

	if err := validate.Struct(nr); err != nil {
		return err
	}
	date, err := core.ParseDate(nr.Date)
	if err != nil {
		return core.NewFieldValidationError("date", err.Error())
	}
	nr.date = date
	return nil
}

// record builds the Record to store; NewRecord must be valid.
func (nr NewRecord) record(userID string, now time.Time) Record {
	return Record{
		UserID:     userID,
		Subject:    nr.Subject,
		Topic:      nr.Topic,
		Difficulty: nr.Difficulty,
		StudyHours: *nr.StudyHours,
		Grade:      *nr.Grade,
		Date:       nr.date,
		CreatedAt:  now,
	}
}
