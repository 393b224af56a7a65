package room

import (
	"github.com/rs/zerolog/log"

	"github.com/seanmccall/pokerclock/go/internal/push"
)

// runNotifier converts room events into push notifications. One notifier
// goroutine runs per room for the room's whole lifetime; it consumes every
// event in publish order and dispatches deliveries concurrently so a slow
// push endpoint never holds up the next event or the command that caused it.
func (r *Room) runNotifier(tap *Tap) {
	defer tap.Close()

	for ev := range tap.C {
		if ev.Type == EventSubscriptionChanged {
			// not a broadcast: only the changing device gets a confirmation
			if sub, ok := r.subscriberFor(ev.Device); ok {
				go r.pusher.Send(sub, push.Notification{Title: "Hello", Body: "Notifications are on"})
			}
			continue
		}

		alert, ok := alertFor(ev)
		if !ok {
			continue
		}
		recipients := ev.Recipients
		if recipients == nil {
			recipients = r.subscribersExcept(ev.Origin)
		}
		log.Debug().
			Str("room_id", r.ID.String()).
			Str("event", string(ev.Type)).
			Int("recipients", len(recipients)).
			Msg("dispatching notifications")
		for _, sub := range recipients {
			go r.pusher.Send(sub, alert)
		}
	}
}

func alertFor(ev Event) (push.Notification, bool) {
	switch ev.Type {
	case EventStarted:
		return push.Notification{Title: "Update", Body: "Tournament started"}, true
	case EventPaused:
		return push.Notification{Title: "Update", Body: "Tournament Paused"}, true
	case EventResumed:
		return push.Notification{Title: "Update", Body: "Tournament Resumed"}, true
	case EventLevelUp:
		body := "Level Up"
		if ev.State != nil {
			body = "Level Up: " + ev.State.Cur.ShortString()
		}
		return push.Notification{Title: "Update", Body: body}, true
	case EventSettingsChanged:
		return push.Notification{Title: "Update", Body: "Tournament settings have changed"}, true
	case EventOneMinuteWarning:
		return push.Notification{Title: "Update", Body: "One minute left in the break"}, true
	case EventEnded:
		return push.Notification{Title: "Update", Body: "Tournament has been terminated"}, true
	default:
		return push.Notification{}, false
	}
}
