package models

import (
	"errors"
	"fmt"
	"moviecatalog/proj/internal/domain/fields"
	"strings"
)

type Movie struct {
	ID     string      `json:"id"`     // Identifier assigned by the remote API
	Title  string      `json:"title"`  // Movie title
	Year   fields.Text `json:"year"`   // 4-digit release year
	Rating fields.Text `json:"rating"` // Rating between 0 and 10, one decimal digit
	Link   string      `json:"link"`   // Link to the movie page
	Image  string      `json:"image"`  // Absolute URL, or a filename relative to the uploads base
}

// Attachment is an image selected locally for upload.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// MovieDraft is an in-progress record under edit. An empty ID means the draft
// creates a new record, otherwise it updates the record with that ID.
type MovieDraft struct {
	ID         string      `json:"id,omitempty" schema:"-"`
	Title      string      `json:"title" schema:"title" validate:"notblank"`
	Year       string      `json:"year" schema:"year" validate:"required,year"`
	Rating     string      `json:"rating" schema:"rating" validate:"required,rating_range,rating_format"`
	Link       string      `json:"link" schema:"link" validate:"required,url"`
	Attachment *Attachment `json:"-" schema:"-"`
}

func (d *MovieDraft) IsCreate() bool {
	return d.ID == ""
}

// DraftFromMovie prefills a draft for the update flow.
func DraftFromMovie(m *Movie) *MovieDraft {
	return &MovieDraft{
		ID:     m.ID,
		Title:  m.Title,
		Year:   string(m.Year),
		Rating: string(m.Rating),
		Link:   m.Link,
	}
}

type Role int

const (
	RoleUser Role = iota + 1
	RoleAdmin
)

var ErrUnknownRole = errors.New("unknown role")

func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "user":
		return RoleUser, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleUser:
		return "user"
	}
	return "unknown"
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// LandingRoute is where the UI goes right after login.
func (r Role) LandingRoute() string {
	switch r {
	case RoleAdmin:
		return "/edit"
	case RoleUser:
		return "/home"
	}
	return "/login"
}

type Session struct {
	Token string `json:"-"`
	Role  Role   `json:"role"`
}

func (s Session) IsZero() bool {
	return s.Token == ""
}

type DeletionRequest struct {
	TargetID  string `json:"target_id"`
	Confirmed bool   `json:"confirmed"`
}
