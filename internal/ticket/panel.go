package ticket

import (
	"context"

	"github.com/rs/zerolog"

	"ticketbot/internal/core"
	"ticketbot/pkg"
)

// PanelMenuID is the custom ID of the support panel select menu
const PanelMenuID = "ticket_options"

// Panel keeps the support panel message in the panel channel
type Panel struct {
	platform  core.Platform
	channelID string
	log       zerolog.Logger
}

// NewPanel creates a publisher for channelID
func NewPanel(platform core.Platform, channelID string, log zerolog.Logger) *Panel {
	return &Panel{platform: platform, channelID: channelID, log: log}
}

// Ensure makes the latest message of the panel channel the support panel.
// A bot-authored embed message at the bottom is edited in place, anything
// else gets a fresh panel posted below it.
func (p *Panel) Ensure(ctx context.Context) (string, error) {
	msg := PanelMessage()

	latest, err := p.platform.LatestMessage(ctx, p.channelID)
	if err != nil {
		return "", core.Provision("fetch latest panel message", err)
	}

	if latest != nil && latest.AuthorID == p.platform.BotUserID() && latest.HasEmbeds {
		if err := p.platform.EditMessage(ctx, p.channelID, latest.ID, msg); err != nil {
			return "", core.Provision("edit panel", err)
		}
		p.log.Info().Str("message_id", latest.ID).Msg("support panel updated")
		return latest.ID, nil
	}

	id, err := p.platform.SendMessage(ctx, p.channelID, msg)
	if err != nil {
		return "", core.Provision("send panel", err)
	}
	p.log.Info().Str("message_id", id).Msg("support panel posted")
	return id, nil
}

// PanelMessage is the support panel: a title and the ticket type menu
func PanelMessage() core.OutboundMessage {
	return core.OutboundMessage{
		Embed: core.Embed{
			Title:       "Support Ticket",
			Description: "Select an option below.",
			Color:       core.ColorInfo,
		},
		Menu: &core.SelectMenu{
			ID:          PanelMenuID,
			Placeholder: "Choose an option...",
			Options: []core.SelectOption{
				{
					Label:       "General Support",
					Description: "Start a general support ticket.",
					Value:       string(pkg.OptionGeneralSupport),
				},
				{
					Label:       "Staff Application",
					Description: "Apply for a staff position.",
					Value:       string(pkg.OptionStaffApplication),
				},
				{
					Label:       "Bot Developer Application",
					Description: "Apply for a bot developer position.",
					Value:       string(pkg.OptionBotDeveloperApplication),
				},
			},
		},
	}
}
