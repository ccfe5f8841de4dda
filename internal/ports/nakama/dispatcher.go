package nakama

import (
	"context"

	"github.com/heroiclabs/nakama-common/runtime"

	"sketchrelay/internal/app"
	"sketchrelay/internal/config"
	"sketchrelay/internal/domain"
	"sketchrelay/internal/ports"
)

// eventDispatcher fans app events out to the surfaces that reach offline
// participants: persistent notifications, and ink settlement when a game
// completes. Lobby socket broadcasts are a separate path and exist only
// while the assembly lobby is alive.
type eventDispatcher struct {
	notifier ports.NotifierPort
	economy  ports.EconomyPort
}

func newEventDispatcher(nk runtime.NakamaModule) *eventDispatcher {
	return &eventDispatcher{
		notifier: NewNakamaNotifierAdapter(nk),
		economy:  NewNakamaEconomyAdapter(nk),
	}
}

// deliver pushes one batch of events. Failures are logged and do not abort
// the batch: the turn state is already persisted, and a lost notification
// must not wedge the rotation.
func (d *eventDispatcher) deliver(ctx context.Context, logger runtime.Logger, party *domain.Party, events []app.Event) {
	for _, ev := range events {
		switch ev.Kind {
		case app.EventTurnAssigned:
			payload := ev.Payload.(app.TurnAssignedPayload)
			d.notify(ctx, logger, payload.ParticipantID, turnSubject(payload.Kind), ev, NotifyTurnAssigned)
		case app.EventTurnSkipped:
			payload := ev.Payload.(app.TurnSkippedPayload)
			d.notify(ctx, logger, payload.ParticipantID, "Your turn was skipped", ev, NotifyTurnSkipped)
		case app.EventGameCompleted:
			payload := ev.Payload.(app.GameCompletedPayload)
			d.settle(ctx, logger, party, payload)
			for _, participantID := range payload.Contributors {
				d.notify(ctx, logger, participantID, "A game you contributed to is finished", ev, NotifyGameCompleted)
			}
		case app.EventPartyFinished:
			for _, participantID := range party.ParticipantIDs {
				d.notify(ctx, logger, participantID, "Every game in your party is finished", ev, NotifyPartyFinished)
			}
		case app.EventSeasonStarted:
			for _, participantID := range party.ParticipantIDs {
				d.notify(ctx, logger, participantID, "The party has started", ev, NotifySeasonStarted)
			}
		}
	}
}

func (d *eventDispatcher) notify(ctx context.Context, logger runtime.Logger, userID, subject string, ev app.Event, code int) {
	content, err := toFields(ev.Payload)
	if err != nil {
		logger.Error("Notify %s: Failed to marshal %s payload: %v", userID, ev.Kind, err)
		return
	}
	content["kind"] = string(ev.Kind)
	if err := d.notifier.Send(ctx, userID, subject, content, code); err != nil {
		logger.Error("Notify %s: Failed to send %s: %v", userID, ev.Kind, err)
	}
}

// settle awards ink to every contributor of a completed game.
func (d *eventDispatcher) settle(ctx context.Context, logger runtime.Logger, party *domain.Party, payload app.GameCompletedPayload) {
	amount := config.InkPerCompletedGame()
	if amount == 0 {
		return
	}

	updates := make([]ports.WalletUpdate, 0, len(payload.Contributors))
	for _, participantID := range payload.Contributors {
		updates = append(updates, ports.WalletUpdate{
			UserID: participantID,
			Amount: amount,
			Metadata: map[string]interface{}{
				"reason":   "game_settlement",
				"party_id": party.ID,
				"game_id":  payload.GameID,
			},
		})
	}
	if err := d.economy.UpdateBalances(ctx, updates); err != nil {
		logger.Error("Settle game %s: Failed to award ink: %v", payload.GameID, err)
	}
}

func turnSubject(kind domain.TurnKind) string {
	if kind == domain.TurnDrawing {
		return "Your turn to draw"
	}
	return "Your turn to write"
}
