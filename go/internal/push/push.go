// Package push delivers web-push notifications to subscribed devices.
// Delivery is best-effort: failures are logged and never retried or surfaced
// to the command that triggered them.
package push

import (
	"encoding/json"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog/log"
)

// Keys is the client key material of a push subscription.
type Keys struct {
	Auth   string `json:"auth"`
	P256dh string `json:"p256dh"`
}

// Subscription is a device's opaque push-delivery credentials.
type Subscription struct {
	Endpoint string `json:"endpoint"`
	Keys     Keys   `json:"keys"`
}

// Notification is the short alert shown on a device.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Sender dispatches one notification to one subscriber. Implementations must
// be safe for concurrent use.
type Sender interface {
	Send(sub Subscription, n Notification)
}

// WebPushSender sends notifications through the web-push protocol with VAPID
// authentication.
type WebPushSender struct {
	subscriber string
	publicKey  string
	privateKey string
}

func NewWebPushSender(subscriber, publicKey, privateKey string) *WebPushSender {
	return &WebPushSender{subscriber: subscriber, publicKey: publicKey, privateKey: privateKey}
}

func (s *WebPushSender) Send(sub Subscription, n Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal notification")
		return
	}

	resp, err := webpush.SendNotification(payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			Auth:   sub.Keys.Auth,
			P256dh: sub.Keys.P256dh,
		},
	}, &webpush.Options{
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             60,
	})
	if err != nil {
		log.Warn().
			Err(err).
			Str("endpoint", sub.Endpoint).
			Str("title", n.Title).
			Msg("push delivery failed")
		return
	}
	defer resp.Body.Close()

	log.Debug().
		Str("endpoint", sub.Endpoint).
		Str("title", n.Title).
		Int("status", resp.StatusCode).
		Msg("push delivered")
}

// NopSender drops every notification. Used when no VAPID keys are configured.
type NopSender struct{}

func (NopSender) Send(sub Subscription, n Notification) {
	log.Debug().Str("endpoint", sub.Endpoint).Msg("push disabled, dropping notification")
}
