package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const sessionTopic = "auth.session"

// Notifier fans session transitions out to subscribers. Publish returns only
// after every subscriber has handled the event, so transitions are observed
// in the order they happened.
type Notifier struct {
	pubSub *gochannel.GoChannel
}

func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer:            16,
				BlockPublishUntilSubscriberAck: true,
			},
			watermill.NewSlogLogger(logger),
		),
	}
}

func (n *Notifier) Publish(ev SessionEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal session event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := n.pubSub.Publish(sessionTopic, msg); err != nil {
		return fmt.Errorf("failed to publish session event: %w", err)
	}
	return nil
}

// Subscribe calls fn for every event published after it returns. Delivery
// stops when ctx is done.
func (n *Notifier) Subscribe(ctx context.Context, fn func(SessionEvent)) error {
	messages, err := n.pubSub.Subscribe(ctx, sessionTopic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to session events: %w", err)
	}

	go func() {
		for msg := range messages {
			var ev SessionEvent
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				slog.Error("Dropping malformed session event", "message_id", msg.UUID, "err", err)
				msg.Ack()
				continue
			}
			fn(ev)
			msg.Ack()
		}
	}()
	return nil
}

func (n *Notifier) Close() error {
	return n.pubSub.Close()
}
