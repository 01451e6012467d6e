package discord

import (
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketbot/internal/core"
)

const guildID = "100000000000000001"

type recordingDispatcher struct {
	events []core.Event
	err    error
}

func (d *recordingDispatcher) Dispatch(ev core.Event) error {
	d.events = append(d.events, ev)
	return d.err
}

func TestRenderSend_MenuAndButtons(t *testing.T) {
	msg := core.OutboundMessage{
		Embed: core.Embed{Title: "T", Description: "D", Color: core.ColorSuccess, ImageURL: "https://cdn/avatar.png"},
		Menu: &core.SelectMenu{ID: "ticket_options", Placeholder: "Pick", Options: []core.SelectOption{
			{Label: "A", Value: "a", Description: "first"},
		}},
		Buttons: []core.Button{
			{ID: "accept_admin_1", Label: "Accept", Style: core.ButtonSuccess},
			{ID: "deny_admin_1", Label: "Deny", Style: core.ButtonDanger},
		},
	}

	send := renderSend(msg)
	require.Len(t, send.Embeds, 1)
	assert.Equal(t, "T", send.Embeds[0].Title)
	assert.Equal(t, 0x00ff00, send.Embeds[0].Color)
	require.NotNil(t, send.Embeds[0].Image)
	assert.Equal(t, "https://cdn/avatar.png", send.Embeds[0].Image.URL)

	require.Len(t, send.Components, 2)
	menuRow, ok := send.Components[0].(discordgo.ActionsRow)
	require.True(t, ok)
	menu, ok := menuRow.Components[0].(discordgo.SelectMenu)
	require.True(t, ok)
	assert.Equal(t, "ticket_options", menu.CustomID)
	assert.Equal(t, "a", menu.Options[0].Value)

	buttonRow, ok := send.Components[1].(discordgo.ActionsRow)
	require.True(t, ok)
	require.Len(t, buttonRow.Components, 2)
	accept := buttonRow.Components[0].(discordgo.Button)
	assert.Equal(t, discordgo.SuccessButton, accept.Style)
	assert.Equal(t, "accept_admin_1", accept.CustomID)
	assert.Equal(t, discordgo.DangerButton, buttonRow.Components[1].(discordgo.Button).Style)
}

func TestRenderEdit_ClearsComponents(t *testing.T) {
	edit := renderEdit("c1", "m1", core.Notice("T", "D", core.ColorInfo))
	assert.Equal(t, "c1", edit.Channel)
	assert.Equal(t, "m1", edit.ID)
	require.NotNil(t, edit.Embeds)
	assert.Len(t, *edit.Embeds, 1)
	require.NotNil(t, edit.Components)
	assert.Empty(t, *edit.Components)
}

func TestRenderResponse_Ephemeral(t *testing.T) {
	resp := renderResponse(core.Notice("Error", "nope", core.ColorError), true)
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, resp.Type)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)

	resp = renderResponse(core.Notice("Info", "ok", core.ColorInfo), false)
	assert.Zero(t, resp.Data.Flags)
}

func TestChannelOverwrites(t *testing.T) {
	ow := channelOverwrites(core.ChannelSpec{
		GuildID:      guildID,
		OwnerID:      "400000000000000001",
		StaffRoleIDs: []string{"200000000000000002", "200000000000000003"},
	})
	require.Len(t, ow, 4)

	assert.Equal(t, "400000000000000001", ow[0].ID)
	assert.Equal(t, discordgo.PermissionOverwriteTypeMember, ow[0].Type)
	assert.NotZero(t, ow[0].Allow&discordgo.PermissionViewChannel)
	assert.NotZero(t, ow[0].Allow&discordgo.PermissionSendMessages)
	assert.NotZero(t, ow[0].Allow&discordgo.PermissionReadMessageHistory)

	assert.Equal(t, guildID, ow[1].ID)
	assert.Equal(t, int64(discordgo.PermissionViewChannel), ow[1].Deny)
	assert.Zero(t, ow[1].Allow)

	for _, staff := range ow[2:] {
		assert.Equal(t, discordgo.PermissionOverwriteTypeRole, staff.Type)
		assert.NotZero(t, staff.Allow&discordgo.PermissionViewChannel)
	}
}

func TestRouter_TranslatesComponents(t *testing.T) {
	d := &recordingDispatcher{}
	r := NewRouter(d, guildID, zerolog.Nop())

	member := &discordgo.Member{
		User:  &discordgo.User{ID: "400000000000000001", Username: "alice"},
		Roles: []string{"200000000000000001"},
	}

	menu := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID: "ix1", AppID: "app", Token: "tok", Type: discordgo.InteractionMessageComponent,
		GuildID: guildID, ChannelID: "c1", Member: member,
		Data: discordgo.MessageComponentInteractionData{
			CustomID: "ticket_options", ComponentType: discordgo.SelectMenuComponent, Values: []string{"general_support"},
		},
	}}
	button := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID: "ix2", AppID: "app", Token: "tok", Type: discordgo.InteractionMessageComponent,
		GuildID: guildID, ChannelID: "c2", Member: member,
		Data: discordgo.MessageComponentInteractionData{
			CustomID: "close_ticket", ComponentType: discordgo.ButtonComponent,
		},
	}}

	r.forward(r.translateInteraction(menu))
	r.forward(r.translateInteraction(button))
	require.Len(t, d.events, 2)

	sel, ok := d.events[0].(core.MenuSelected)
	require.True(t, ok)
	assert.Equal(t, core.Interaction{ID: "ix1", AppID: "app", Token: "tok"}, sel.Interaction)
	assert.Equal(t, []string{"general_support"}, sel.Values)
	assert.Equal(t, "alice", sel.User.Username)
	assert.Equal(t, []string{"200000000000000001"}, sel.User.RoleIDs)
	assert.Equal(t, "400000000000000001", sel.Key())

	click, ok := d.events[1].(core.ButtonClicked)
	require.True(t, ok)
	assert.Equal(t, "close_ticket", click.CustomID)
	assert.Equal(t, "c2", click.ChannelID)
}

func TestRouter_IgnoresOtherGuildsAndTypes(t *testing.T) {
	d := &recordingDispatcher{}
	r := NewRouter(d, guildID, zerolog.Nop())

	r.forward(r.translateInteraction(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionApplicationCommand, GuildID: guildID,
	}}))
	r.forward(r.translateMessage(&discordgo.MessageCreate{Message: &discordgo.Message{
		ID: "m", GuildID: "999999999999999999", ChannelID: "c", Author: &discordgo.User{ID: "u"},
	}}))
	r.forward(r.translateMessage(&discordgo.MessageCreate{Message: &discordgo.Message{ID: "m", GuildID: guildID}}))
	r.forward(translateReady(&discordgo.Ready{}))

	assert.Empty(t, d.events)
}

func TestRouter_MessagesAndJoins(t *testing.T) {
	d := &recordingDispatcher{err: errors.New("closed")}
	r := NewRouter(d, guildID, zerolog.Nop())

	r.forward(r.translateMessage(&discordgo.MessageCreate{Message: &discordgo.Message{
		ID: "m1", GuildID: guildID, ChannelID: "c1", Content: "my answer",
		Author: &discordgo.User{ID: "400000000000000001"},
	}}))
	r.forward(r.translateMemberAdd(&discordgo.GuildMemberAdd{Member: &discordgo.Member{
		GuildID: guildID, User: &discordgo.User{ID: "400000000000000002", Username: "bob"},
	}}))
	r.forward(translateReady(&discordgo.Ready{User: &discordgo.User{ID: "500000000000000001"}}))

	require.Len(t, d.events, 3)
	msg := d.events[0].(core.MessagePosted)
	assert.Equal(t, "my answer", msg.Content)
	assert.Equal(t, "400000000000000001", msg.AuthorID)
	assert.False(t, msg.AuthorIsBot)

	joined := d.events[1].(core.MemberJoined)
	assert.Equal(t, "bob", joined.User.Username)
	assert.NotEmpty(t, joined.User.AvatarURL)

	assert.Equal(t, core.Ready{BotUserID: "500000000000000001"}, d.events[2])
}

func TestIsUnknown(t *testing.T) {
	coded := &discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMember}}
	assert.True(t, isUnknown(coded, discordgo.ErrCodeUnknownMember))
	assert.False(t, isUnknown(coded, discordgo.ErrCodeUnknownChannel))

	notFound := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}}
	assert.True(t, isUnknown(notFound, discordgo.ErrCodeUnknownChannel))

	assert.False(t, isUnknown(errors.New("boom"), discordgo.ErrCodeUnknownMember))
}
