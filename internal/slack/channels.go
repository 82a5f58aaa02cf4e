package slack

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/slack-go/slack"
)

// conversationLister is the slice of the Slack API the resolver needs
type conversationLister interface {
	GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error)
}

// ChannelResolver turns a configured channel name into a channel ID,
// remembering answers for the life of the process
type ChannelResolver struct {
	client conversationLister
	mu     sync.RWMutex
	cache  map[string]string // name -> id
}

// NewChannelResolver creates a new channel resolver
func NewChannelResolver(client conversationLister) *ChannelResolver {
	return &ChannelResolver{
		client: client,
		cache:  make(map[string]string),
	}
}

// ResolveChannel accepts a channel ID (C01234567890) or a name with or
// without the leading #
func (r *ChannelResolver) ResolveChannel(ctx context.Context, nameOrID string) (string, error) {
	nameOrID = strings.TrimSpace(nameOrID)
	if nameOrID == "" {
		return "", fmt.Errorf("channel name/ID is empty")
	}
	if isChannelID(nameOrID) {
		return nameOrID, nil
	}

	name := strings.TrimPrefix(nameOrID, "#")
	r.mu.RLock()
	id, ok := r.cache[name]
	r.mu.RUnlock()
	if ok {
		return id, nil
	}

	id, err := r.lookupChannel(ctx, name)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.cache[name] = id
	r.mu.Unlock()
	return id, nil
}

// lookupChannel pages through public and private channels looking for name
func (r *ChannelResolver) lookupChannel(ctx context.Context, name string) (string, error) {
	params := &slack.GetConversationsParameters{
		ExcludeArchived: true,
		Limit:           200,
		Types:           []string{"public_channel", "private_channel"},
	}
	for {
		channels, cursor, err := r.client.GetConversationsContext(ctx, params)
		if err != nil {
			return "", fmt.Errorf("failed to list channels: %w", err)
		}
		for _, ch := range channels {
			if ch.Name == name {
				return ch.ID, nil
			}
		}
		if cursor == "" {
			return "", fmt.Errorf("channel '%s' not found", name)
		}
		params.Cursor = cursor
	}
}

// isChannelID checks if a string looks like a Slack channel ID.
// Channel IDs start with C followed by uppercase letters and digits.
func isChannelID(s string) bool {
	if len(s) < 9 || len(s) > 15 || !strings.HasPrefix(s, "C") {
		return false
	}
	for _, c := range s[1:] {
		if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}
