package discord

import (
	"github.com/bwmarrin/discordgo"

	"ticketbot/internal/core"
	"ticketbot/pkg"
)

const avatarSize = "1024"

var buttonStyles = map[core.ButtonStyle]discordgo.ButtonStyle{
	core.ButtonPrimary: discordgo.PrimaryButton,
	core.ButtonSuccess: discordgo.SuccessButton,
	core.ButtonDanger:  discordgo.DangerButton,
}

func renderEmbed(e core.Embed) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       int(e.Color),
	}
	if e.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: e.ImageURL}
	}
	return embed
}

// renderComponents lays out the menu and the buttons, one action row each
func renderComponents(msg core.OutboundMessage) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent

	if msg.Menu != nil {
		options := make([]discordgo.SelectMenuOption, len(msg.Menu.Options))
		for i, o := range msg.Menu.Options {
			options[i] = discordgo.SelectMenuOption{
				Label:       o.Label,
				Value:       o.Value,
				Description: o.Description,
			}
		}
		rows = append(rows, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    msg.Menu.ID,
					Placeholder: msg.Menu.Placeholder,
					Options:     options,
				},
			},
		})
	}

	if len(msg.Buttons) > 0 {
		buttons := make([]discordgo.MessageComponent, len(msg.Buttons))
		for i, b := range msg.Buttons {
			style, ok := buttonStyles[b.Style]
			if !ok {
				style = discordgo.SecondaryButton
			}
			buttons[i] = discordgo.Button{
				Label:    b.Label,
				Style:    style,
				CustomID: b.ID,
			}
		}
		rows = append(rows, discordgo.ActionsRow{Components: buttons})
	}

	return rows
}

func renderSend(msg core.OutboundMessage) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{renderEmbed(msg.Embed)},
		Components: renderComponents(msg),
	}
}

func renderEdit(channelID, messageID string, msg core.OutboundMessage) *discordgo.MessageEdit {
	embeds := []*discordgo.MessageEmbed{renderEmbed(msg.Embed)}
	components := renderComponents(msg)
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	edit := discordgo.NewMessageEdit(channelID, messageID)
	edit.Embeds = &embeds
	edit.Components = &components
	return edit
}

func renderResponse(msg core.OutboundMessage, ephemeral bool) *discordgo.InteractionResponse {
	data := &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{renderEmbed(msg.Embed)},
		Components: renderComponents(msg),
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}
}

// channelOverwrites hides the channel from @everyone and opens it to the
// owner and every staff role
func channelOverwrites(spec core.ChannelSpec) []*discordgo.PermissionOverwrite {
	const access = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionReadMessageHistory

	overwrites := []*discordgo.PermissionOverwrite{
		{
			ID:    spec.OwnerID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: access,
		},
		{
			// the @everyone role shares the guild's ID
			ID:   spec.GuildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
	}
	for _, roleID := range spec.StaffRoleIDs {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    roleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: access,
		})
	}
	return overwrites
}

func memberUser(m *discordgo.Member) pkg.User {
	if m == nil || m.User == nil {
		return pkg.User{}
	}
	u := userOf(m.User)
	u.RoleIDs = append([]string(nil), m.Roles...)
	return u
}

func userOf(u *discordgo.User) pkg.User {
	if u == nil {
		return pkg.User{}
	}
	return pkg.User{
		ID:        u.ID,
		Username:  u.Username,
		AvatarURL: u.AvatarURL(avatarSize),
	}
}

func messagePosted(m *discordgo.Message) core.MessagePosted {
	msg := core.MessagePosted{
		ID:        m.ID,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		HasEmbeds: len(m.Embeds) > 0,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorIsBot = m.Author.Bot
	}
	return msg
}
