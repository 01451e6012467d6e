package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"ticketbot/internal/application"
	"ticketbot/internal/core"
	"ticketbot/internal/metrics"
	"ticketbot/internal/ticket"
	"ticketbot/pkg"
)

// openSupport opens a general support ticket for the selecting user
func (b *Bot) openSupport(ctx context.Context, e core.MenuSelected) {
	log := zerolog.Ctx(ctx).With().Str("user_id", e.User.ID).Logger()
	option := string(pkg.OptionGeneralSupport)

	if err := b.Registry.TryOpen(ctx, pkg.Session{UserID: e.User.ID, Kind: pkg.SessionSupport}); err != nil {
		b.rejectOpen(ctx, e.Interaction, option, err, "Failed to create the support ticket. Please try again later.")
		return
	}

	ch, err := b.Provisioner.Create(ctx, ticket.PurposeTicket, b.guild(e.GuildID), e.User)
	if err != nil {
		b.releaseReservation(ctx, e.User.ID)
		b.rejectOpen(ctx, e.Interaction, option, err, "Failed to create the support ticket. Please try again later.")
		return
	}

	if err := b.Registry.Attach(ctx, e.User.ID, ch.ID); err != nil {
		b.abortChannel(ctx, e.User.ID, ch.ID)
		b.rejectOpen(ctx, e.Interaction, option, err, "Failed to create the support ticket. Please try again later.")
		return
	}

	b.reply(ctx, e.Interaction, core.Notice("Ticket Created",
		fmt.Sprintf("Your support ticket has been created! Please check %s.", ch.Mention()), core.ColorSuccess))

	opening := core.OutboundMessage{
		Embed: core.Embed{
			Title:       "New ModMail Ticket",
			Description: fmt.Sprintf("New ModMail ticket started by %s (%s).", e.User.Mention(), e.User.ID),
			Color:       core.ColorInfo,
		},
		Buttons: []core.Button{{ID: CloseTicketID, Label: "Close Support", Style: core.ButtonDanger}},
	}
	if _, err := b.Platform.SendMessage(ctx, ch.ID, opening); err != nil {
		log.Error().Err(err).Str("channel_id", ch.ID).Msg("failed to post ticket opening message")
	}

	metrics.TicketRequest(option, "opened")
	log.Info().Str("channel_id", ch.ID).Msg("support ticket opened")
}

// closeTicket closes the support ticket the button was clicked in
func (b *Bot) closeTicket(ctx context.Context, e core.ButtonClicked) {
	log := zerolog.Ctx(ctx).With().Str("channel_id", e.ChannelID).Str("closed_by", e.User.ID).Logger()

	if err := b.Platform.Reply(ctx, e.Interaction, core.Notice("Ticket Closed",
		"This ticket has been closed by a staff member.", core.ColorError), false); err != nil {
		log.Warn().Err(err).Msg("failed to announce ticket close")
	}

	s, ok, err := b.Registry.ByChannel(ctx, e.ChannelID)
	if err != nil {
		log.Error().Err(err).Msg("failed to look up ticket session")
	}
	if ok && s.Kind == pkg.SessionApplication {
		err := b.Engine.Abandon(ctx, e.ChannelID, "closed by a staff member")
		switch {
		case err == nil:
			log.Info().Msg("application closed")
			return
		case !errors.Is(err, application.ErrNotRunning):
			log.Error().Err(err).Msg("failed to abandon application")
			return
		}
	}
	if ok {
		if err := b.Registry.Close(ctx, s.UserID); err != nil {
			log.Error().Err(err).Msg("failed to close ticket session")
		}
	}

	if err := b.Provisioner.Delete(ctx, e.ChannelID); err != nil {
		log.Error().Err(err).Msg("failed to delete ticket channel")
		if _, sendErr := b.Platform.SendMessage(ctx, e.ChannelID, core.Notice("Error",
			"Failed to close the ticket. Please check the bot permissions.", core.ColorError)); sendErr != nil {
			log.Warn().Err(sendErr).Msg("failed to report close failure")
		}
		return
	}
	log.Info().Msg("support ticket closed")
}

// onMemberJoined grants the community role and posts the welcome message
func (b *Bot) onMemberJoined(ctx context.Context, e core.MemberJoined) {
	log := zerolog.Ctx(ctx).With().Str("user_id", e.User.ID).Logger()

	if b.cfg.Roles.Community != "" {
		if err := b.Platform.GrantRole(ctx, b.guild(e.GuildID), e.User.ID, b.cfg.Roles.Community); err != nil {
			log.Error().Err(err).Msg("failed to assign community role")
		}
	}

	if b.cfg.WelcomeChannelID == "" {
		return
	}
	welcome := core.OutboundMessage{Embed: core.Embed{
		Title:       b.cfg.WelcomeTitle,
		Description: fmt.Sprintf("Hey %s, welcome to the server!", e.User.Mention()),
		Color:       core.ColorSuccess,
		ImageURL:    e.User.AvatarURL,
	}}
	if _, err := b.Platform.SendMessage(ctx, b.cfg.WelcomeChannelID, welcome); err != nil {
		log.Error().Err(err).Msg("failed to send welcome message")
		return
	}
	log.Info().Msg("member welcomed")
}

// rejectOpen tells the user why their ticket could not be opened
func (b *Bot) rejectOpen(ctx context.Context, ix core.Interaction, option string, err error, provisionText string) {
	result, text := "failed", provisionText
	switch {
	case errors.Is(err, core.ErrDuplicateSession):
		result, text = "duplicate", core.UserMessage(err)
	case errors.Is(err, core.ErrCategoryMissing):
		result, text = "category_missing", core.UserMessage(err)
	case errors.Is(err, core.ErrEligibilityDenied):
		result, text = "ineligible", core.UserMessage(err)
	}

	log := zerolog.Ctx(ctx)
	if result == "failed" {
		log.Error().Err(err).Str("option", option).Msg("failed to open ticket")
	} else {
		log.Info().Err(err).Str("option", option).Msg("ticket request rejected")
	}
	metrics.TicketRequest(option, result)
	b.replyError(ctx, ix, text)
}

// releaseReservation drops a session whose channel was never created
func (b *Bot) releaseReservation(ctx context.Context, userID string) {
	if err := b.Registry.Close(ctx, userID); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("user_id", userID).Msg("failed to release session reservation")
	}
}

// abortChannel removes a channel created for a session that could not be kept
func (b *Bot) abortChannel(ctx context.Context, userID, channelID string) {
	b.releaseReservation(ctx, userID)
	if err := b.Provisioner.Delete(ctx, channelID); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("channel_id", channelID).Msg("failed to delete orphaned channel")
	}
}

func (b *Bot) guild(eventGuildID string) string {
	if eventGuildID != "" {
		return eventGuildID
	}
	return b.cfg.GuildID
}
