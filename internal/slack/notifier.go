// Package slack posts report notifications (overdue, flagged, merged) to a
// Slack channel, either through an incoming webhook or a bot token.
package slack

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/slack-go/slack"

	"github.com/citywatch/citywatch/internal/events"
)

const (
	queueSize   = 100
	postTimeout = 10 * time.Second
)

// Config selects how notifications are delivered. A webhook wins over a bot
// token when both are set.
type Config struct {
	WebhookURL string
	BotToken   string
	Channel    string
}

// Enabled reports whether any delivery method is configured
func (c Config) Enabled() bool {
	return c.WebhookURL != "" || (c.BotToken != "" && c.Channel != "")
}

// Notifier implements events.Publisher. Events are queued and posted by a
// background worker so publishing never waits on Slack.
type Notifier struct {
	cfg      Config
	client   *slack.Client
	resolver *ChannelResolver
	now      func() time.Time

	queue chan events.Event

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewNotifier creates a notifier. opts are passed to the bot client.
func NewNotifier(cfg Config, opts ...slack.Option) *Notifier {
	n := &Notifier{
		cfg:   cfg,
		now:   time.Now,
		queue: make(chan events.Event, queueSize),
	}
	if cfg.WebhookURL == "" && cfg.BotToken != "" {
		options := append([]slack.Option{
			slack.OptionHTTPClient(&http.Client{Timeout: postTimeout}),
		}, opts...)
		n.client = slack.New(cfg.BotToken, options...)
		n.resolver = NewChannelResolver(n.client)
	}
	return n
}

// Publish queues notifiable events. When the queue is full the event is dropped.
func (n *Notifier) Publish(e events.Event) {
	switch e.Type {
	case events.IncidentOverdue, events.IncidentFlagged, events.IncidentsMerged:
	default:
		return
	}
	select {
	case n.queue <- e:
	default:
		log.Printf("SlackNotifier: queue full, dropping %s for %s", e.Type, e.IncidentID)
	}
}

// Start launches the delivery worker
func (n *Notifier) Start() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.running {
		return
	}
	n.stopChan = make(chan struct{})
	n.doneChan = make(chan struct{})
	n.running = true
	go n.run(n.stopChan, n.doneChan)
	log.Printf("SlackNotifier: Slack notifications are ACTIVE")
}

// Stop halts the worker after the message in flight. Queued events are discarded.
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.running {
		return
	}
	close(n.stopChan)
	<-n.doneChan
	n.running = false
	log.Printf("SlackNotifier: stopped")
}

func (n *Notifier) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case e := <-n.queue:
			ctx, cancel := context.WithTimeout(context.Background(), postTimeout)
			if err := n.Send(ctx, e); err != nil {
				log.Printf("SlackNotifier: failed to post %s for %s: %v", e.Type, e.IncidentID, err)
			}
			cancel()
		}
	}
}

// Send formats and posts a single event synchronously
func (n *Notifier) Send(ctx context.Context, e events.Event) error {
	text := FormatEvent(e, n.now())
	if text == "" {
		return nil
	}

	if n.cfg.WebhookURL != "" {
		return slack.PostWebhookContext(ctx, n.cfg.WebhookURL, &slack.WebhookMessage{Text: text})
	}
	if n.client == nil {
		return fmt.Errorf("slack is not configured")
	}

	channelID, err := n.resolver.ResolveChannel(ctx, n.cfg.Channel)
	if err != nil {
		return err
	}
	_, _, err = n.client.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	return err
}
