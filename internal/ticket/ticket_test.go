package ticket

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketbot/internal/core"
	"ticketbot/internal/core/coretest"
	"ticketbot/internal/storage"
	"ticketbot/pkg"
)

const (
	botID      = "500000000000000001"
	guildID    = "100000000000000001"
	categoryID = "300000000000000003"
	panelID    = "300000000000000002"
)

var staffRoles = []string{"200000000000000002", "200000000000000003"}

func newRegistry() *Registry {
	return NewRegistry(storage.NewMemorySessionStore(), zerolog.Nop())
}

func TestRegistry_ReserveAttachClose(t *testing.T) {
	ctx := context.Background()
	r := newRegistry()

	require.NoError(t, r.TryOpen(ctx, pkg.Session{UserID: "u1", Kind: pkg.SessionSupport}))

	open, err := r.IsOpen(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, open)

	err = r.TryOpen(ctx, pkg.Session{UserID: "u1", Kind: pkg.SessionApplication, RoleType: pkg.RoleAdmin})
	assert.ErrorIs(t, err, core.ErrDuplicateSession)

	require.NoError(t, r.Attach(ctx, "u1", "c1"))
	s, ok, err := r.ByChannel(ctx, "c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, pkg.SessionSupport, s.Kind)
	assert.False(t, s.OpenedAt.IsZero())

	require.NoError(t, r.Close(ctx, "u1"))
	require.NoError(t, r.Close(ctx, "u1"))

	open, err = r.IsOpen(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, open)

	_, ok, err = r.ByChannel(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistry_AttachWithoutReservation(t *testing.T) {
	r := newRegistry()
	err := r.Attach(context.Background(), "nobody", "c1")
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestRegistry_Reset(t *testing.T) {
	ctx := context.Background()
	r := newRegistry()
	require.NoError(t, r.TryOpen(ctx, pkg.Session{UserID: "u1", Kind: pkg.SessionSupport}))
	require.NoError(t, r.TryOpen(ctx, pkg.Session{UserID: "u2", Kind: pkg.SessionSupport}))

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, r.Reset(ctx))
	n, err = r.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProvisioner_Create(t *testing.T) {
	p := coretest.NewPlatform(botID)
	p.AddChannel(categoryID, "Mod-mail")
	prov := NewProvisioner(p, categoryID, staffRoles, zerolog.Nop())

	applicant := pkg.User{ID: "400000000000000001", Username: "Alice Smith"}
	ch, err := prov.Create(context.Background(), PurposeApplication, guildID, applicant)
	require.NoError(t, err)
	assert.Equal(t, "application-alice-smith", ch.Name)

	require.Len(t, p.Created, 1)
	spec := p.Created[0]
	assert.Equal(t, guildID, spec.GuildID)
	assert.Equal(t, categoryID, spec.ParentID)
	assert.Equal(t, applicant.ID, spec.OwnerID)
	assert.Equal(t, staffRoles, spec.StaffRoleIDs)
	assert.Equal(t, "Application channel for Alice Smith", spec.Reason)
}

func TestProvisioner_CategoryMissing(t *testing.T) {
	p := coretest.NewPlatform(botID)
	prov := NewProvisioner(p, categoryID, staffRoles, zerolog.Nop())

	_, err := prov.Create(context.Background(), PurposeTicket, guildID, pkg.User{ID: "u", Username: "bob"})
	assert.ErrorIs(t, err, core.ErrCategoryMissing)
	assert.Empty(t, p.Created)
}

func TestProvisioner_CreateFailure(t *testing.T) {
	p := coretest.NewPlatform(botID)
	p.AddChannel(categoryID, "Mod-mail")
	p.FailCreate = true
	prov := NewProvisioner(p, categoryID, staffRoles, zerolog.Nop())

	_, err := prov.Create(context.Background(), PurposeTicket, guildID, pkg.User{ID: "u", Username: "bob"})
	assert.ErrorIs(t, err, core.ErrProvision)
	assert.ErrorIs(t, err, coretest.ErrInjected)
}

func TestChannelName(t *testing.T) {
	assert.Equal(t, "ticket-bob", ChannelName(PurposeTicket, "Bob"))
	assert.Equal(t, "application-a-b", ChannelName(PurposeApplication, "  a   b "))
	assert.Equal(t, "ticket-user", ChannelName(PurposeTicket, ""))
}

func TestPanel_PostsWhenChannelEmpty(t *testing.T) {
	p := coretest.NewPlatform(botID)
	panel := NewPanel(p, panelID, zerolog.Nop())

	id, err := panel.Ensure(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	sent := p.SentTo(panelID)
	require.Len(t, sent, 1)
	assert.Equal(t, "Support Ticket", sent[0].Embed.Title)
	require.NotNil(t, sent[0].Menu)
	assert.Equal(t, PanelMenuID, sent[0].Menu.ID)
	assert.Len(t, sent[0].Menu.Options, 3)
	assert.Empty(t, p.Edited)
}

func TestPanel_EditsOwnLatestMessage(t *testing.T) {
	p := coretest.NewPlatform(botID)
	panel := NewPanel(p, panelID, zerolog.Nop())

	first, err := panel.Ensure(context.Background())
	require.NoError(t, err)

	second, err := panel.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, p.SentTo(panelID), 1)
	require.Len(t, p.Edited, 1)
	assert.Equal(t, first, p.Edited[0].ID)
}

func TestPanel_PostsBelowForeignMessage(t *testing.T) {
	tests := []struct {
		name      string
		authorID  string
		hasEmbeds bool
	}{
		{"other author", "400000000000000001", true},
		{"own message without embed", botID, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := coretest.NewPlatform(botID)
			p.PostAs(panelID, tt.authorID, tt.hasEmbeds)
			panel := NewPanel(p, panelID, zerolog.Nop())

			_, err := panel.Ensure(context.Background())
			require.NoError(t, err)
			assert.Len(t, p.SentTo(panelID), 1)
			assert.Empty(t, p.Edited)
		})
	}
}
