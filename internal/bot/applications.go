package bot

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"ticketbot/internal/core"
	"ticketbot/internal/metrics"
	"ticketbot/internal/services"
	"ticketbot/internal/ticket"
	"ticketbot/pkg"
)

const applicationFailed = "Failed to create the application channel. Please try again later."

// openApplication starts a staff or bot developer application. Staff
// applications are for the next role up the hierarchy; bot developer
// applications are open to everyone.
func (b *Bot) openApplication(ctx context.Context, e core.MenuSelected, option pkg.TicketOption) {
	log := zerolog.Ctx(ctx).With().Str("user_id", e.User.ID).Str("option", string(option)).Logger()

	open, err := b.Registry.IsOpen(ctx, e.User.ID)
	if err != nil {
		b.rejectOpen(ctx, e.Interaction, string(option), err, applicationFailed)
		return
	}
	if open {
		b.rejectOpen(ctx, e.Interaction, string(option), core.ErrDuplicateSession, applicationFailed)
		return
	}

	rt := pkg.RoleBotDeveloper
	if option == pkg.OptionStaffApplication {
		held := services.HighestHeld(e.User.RoleIDs, b.cfg.Roles)
		eligible, ok := services.EligibleRole(held)
		if !ok {
			err := fmt.Errorf("user %s holds %s: %w", e.User.ID, held, core.ErrEligibilityDenied)
			b.rejectOpen(ctx, e.Interaction, string(option), err, applicationFailed)
			return
		}
		rt = eligible
	}

	questions, err := b.Questions.Questions(rt)
	if err != nil {
		b.rejectOpen(ctx, e.Interaction, string(option), err, applicationFailed)
		return
	}

	session := pkg.Session{UserID: e.User.ID, Kind: pkg.SessionApplication, RoleType: rt}
	if err := b.Registry.TryOpen(ctx, session); err != nil {
		b.rejectOpen(ctx, e.Interaction, string(option), err, applicationFailed)
		return
	}

	ch, err := b.Provisioner.Create(ctx, ticket.PurposeApplication, b.guild(e.GuildID), e.User)
	if err != nil {
		b.releaseReservation(ctx, e.User.ID)
		b.rejectOpen(ctx, e.Interaction, string(option), err, applicationFailed)
		return
	}

	if err := b.Registry.Attach(ctx, e.User.ID, ch.ID); err != nil {
		b.abortChannel(ctx, e.User.ID, ch.ID)
		b.rejectOpen(ctx, e.Interaction, string(option), err, applicationFailed)
		return
	}

	// answer the interaction before the questionnaire is sent
	b.reply(ctx, e.Interaction, core.Notice("Application Started",
		fmt.Sprintf("Your %s application has been started! Please check %s.", rt.DisplayName(), ch.Mention()),
		core.ColorSuccess))

	// Start releases the session and the channel itself when it fails
	if err := b.Engine.Start(ctx, ch.ID, e.User, rt, questions); err != nil {
		log.Error().Err(err).Str("channel_id", ch.ID).Msg("failed to start application")
		metrics.TicketRequest(string(option), "failed")
		if dmErr := b.Platform.SendDirectMessage(ctx, e.User.ID, core.Notice("Error", applicationFailed, core.ColorError)); dmErr != nil {
			log.Warn().Err(dmErr).Msg("failed to report application start failure")
		}
		return
	}

	metrics.TicketRequest(string(option), "opened")
	metrics.Application(string(rt), "started")
	log.Info().Str("channel_id", ch.ID).Str("role_type", string(rt)).Msg("application opened")
}
