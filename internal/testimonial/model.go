// Package testimonial stores customer reviews and their moderation state.
package testimonial

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrNotFound   = errors.New("testimonial not found")
	ErrValidation = errors.New("validation error")
)

// Status is the single moderation state; approved and rejected cannot both hold.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

const minTextLen = 10

type Testimonial struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Rating    int       `json:"rating"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MarshalJSON adds the approved/rejected flags older clients read.
func (t Testimonial) MarshalJSON() ([]byte, error) {
	type plain Testimonial
	return json.Marshal(struct {
		plain
		Approved bool `json:"approved"`
		Rejected bool `json:"rejected"`
	}{plain(t), t.Status == StatusApproved, t.Status == StatusRejected})
}

// SubmitRequest is a public review submission.
// swagger:model SubmitRequest
type SubmitRequest struct {
	Author string `json:"author" example:"Dilshod"`
	Text   string `json:"text"   example:"Tez yetkazib berishdi, rahmat!"`
	Rating int    `json:"rating" example:"5"`
}

func (r SubmitRequest) Validate() (*Testimonial, error) {
	author := strings.TrimSpace(r.Author)
	text := strings.TrimSpace(r.Text)
	if author == "" {
		return nil, fmt.Errorf("%w: author is required", ErrValidation)
	}
	if utf8.RuneCountInString(text) < minTextLen {
		return nil, fmt.Errorf("%w: text must be at least %d characters", ErrValidation, minTextLen)
	}
	if r.Rating < 1 || r.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	return &Testimonial{Author: author, Text: text, Rating: r.Rating, Status: StatusPending}, nil
}
