package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketbot/pkg"
)

var testRoles = pkg.RoleIDs{
	Community:    "200000000000000001",
	Moderator:    "200000000000000002",
	Admin:        "200000000000000003",
	BotDeveloper: "200000000000000004",
}

func TestHighestHeld(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  HeldRole
	}{
		{"no roles", nil, HeldNone},
		{"unrelated role", []string{"999999999999999999"}, HeldNone},
		{"community", []string{testRoles.Community}, HeldCommunity},
		{"moderator", []string{testRoles.Community, testRoles.Moderator}, HeldModerator},
		{"moderator listed first", []string{testRoles.Moderator, testRoles.Community}, HeldModerator},
		{"admin wins", []string{testRoles.Community, testRoles.Admin, testRoles.Moderator}, HeldAdmin},
		{"bot developer alone", []string{testRoles.BotDeveloper}, HeldNone},
		{"empty id ignored", []string{""}, HeldNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HighestHeld(tt.roles, testRoles))
		})
	}
}

func TestEligibleRole(t *testing.T) {
	tests := []struct {
		held   HeldRole
		want   pkg.RoleType
		wantOK bool
	}{
		{HeldAdmin, "", false},
		{HeldModerator, pkg.RoleAdmin, true},
		{HeldCommunity, pkg.RoleModerator, true},
		{HeldNone, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.held.String(), func(t *testing.T) {
			got, ok := EligibleRole(tt.held)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuestionService_BuiltIn(t *testing.T) {
	svc, err := NewQuestionService(nil)
	require.NoError(t, err)

	tests := map[pkg.RoleType]int{
		pkg.RoleModerator:    10,
		pkg.RoleAdmin:        10,
		pkg.RoleBotDeveloper: 20,
	}
	for rt, n := range tests {
		qs, err := svc.Questions(rt)
		require.NoError(t, err)
		assert.Len(t, qs, n, rt)
	}

	_, err = svc.Questions("janitor")
	assert.Error(t, err)
}

func TestQuestionService_OverrideAndCopy(t *testing.T) {
	svc, err := NewQuestionService(map[pkg.RoleType][]string{
		pkg.RoleAdmin: {"Only question"},
	})
	require.NoError(t, err)

	qs, err := svc.Questions(pkg.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, []string{"Only question"}, qs)

	qs[0] = "mutated"
	again, err := svc.Questions(pkg.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "Only question", again[0])

	mod, err := svc.Questions(pkg.RoleModerator)
	require.NoError(t, err)
	assert.Len(t, mod, 10)

	_, err = NewQuestionService(map[pkg.RoleType][]string{"janitor": {"q"}})
	assert.Error(t, err)
	_, err = NewQuestionService(map[pkg.RoleType][]string{pkg.RoleAdmin: nil})
	assert.Error(t, err)
}
