package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	role, err := ParseRole("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	role, err = ParseRole(" User ")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, role)

	_, err = ParseRole("root")
	assert.ErrorIs(t, err, ErrUnknownRole)
	_, err = ParseRole("")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestRole_LandingRoute(t *testing.T) {
	assert.Equal(t, "/edit", RoleAdmin.LandingRoute())
	assert.Equal(t, "/home", RoleUser.LandingRoute())
	assert.Equal(t, "/login", Role(0).LandingRoute())
}

func TestDraftFromMovie(t *testing.T) {
	d := DraftFromMovie(&Movie{ID: "m1", Title: "Dune", Year: "2021", Rating: "8.5", Link: "https://x.io", Image: "a.png"})
	assert.False(t, d.IsCreate())
	assert.Equal(t, "2021", d.Year)
	assert.Equal(t, "8.5", d.Rating)
	assert.Nil(t, d.Attachment)
	assert.True(t, (&MovieDraft{}).IsCreate())
}
