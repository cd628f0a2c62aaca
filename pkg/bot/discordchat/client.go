// Package discordchat connects the bot to Discord through an arikawa gateway
// session.
package discordchat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/state"
	"github.com/zeromicro/go-zero/core/logx"
)

// Client implements bot.Chat over a Discord gateway session.
type Client struct {
	s      *state.State
	router *Router

	mu      sync.RWMutex
	baseCtx context.Context
}

// New creates a client for botToken. Commands are messages starting with prefix.
func New(botToken, prefix string) (*Client, error) {
	if botToken == "" {
		return nil, errors.New("discordchat: bot token is required")
	}
	c := &Client{
		s:       state.New("Bot " + botToken),
		router:  NewRouter(prefix),
		baseCtx: context.Background(),
	}
	c.s.AddIntents(gateway.IntentGuilds | gateway.IntentGuildMessages | gateway.IntentDirectMessages | gateway.IntentMessageContent)

	c.s.AddHandler(func(r *gateway.ReadyEvent) {
		logx.Infof("discordchat: logged in as %s#%s", r.User.Username, r.User.Discriminator)
	})
	c.s.AddHandler(func(m *gateway.MessageCreateEvent) {
		c.router.Route(c.context(), m.ChannelID.String(), m.Content, m.Author.Bot)
	})
	return c, nil
}

// Open connects to the gateway. Command handlers receive contexts derived
// from ctx.
func (c *Client) Open(ctx context.Context) error {
	c.mu.Lock()
	c.baseCtx = ctx
	c.mu.Unlock()
	if err := c.s.Open(ctx); err != nil {
		return fmt.Errorf("discordchat: open gateway: %w", err)
	}
	return nil
}

// Close disconnects from the gateway.
func (c *Client) Close() error {
	return c.s.Close()
}

func (c *Client) context() context.Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseCtx
}

// OnCommand routes "<prefix><keyword>" messages to handler.
func (c *Client) OnCommand(keyword string, handler func(ctx context.Context, channelID string)) {
	c.router.Handle(keyword, handler)
}

// SetStatus shows text as a "Watching" activity.
func (c *Client) SetStatus(ctx context.Context, text string) error {
	return c.s.SendGateway(ctx, &gateway.UpdatePresenceCommand{
		Status: discord.OnlineStatus,
		Activities: []discord.Activity{
			{Name: text, Type: discord.WatchingActivity},
		},
	})
}

// SendText posts a plain message.
func (c *Client) SendText(ctx context.Context, channelID, text string) error {
	id, err := ParseChannelID(channelID)
	if err != nil {
		return err
	}
	_, err = c.s.WithContext(ctx).SendMessage(id, text)
	return err
}

// SendEmbed posts a message carrying a single embed.
func (c *Client) SendEmbed(ctx context.Context, channelID string, embed discord.Embed) error {
	id, err := ParseChannelID(channelID)
	if err != nil {
		return err
	}
	_, err = c.s.WithContext(ctx).SendMessage(id, "", embed)
	return err
}

// ParseChannelID converts a decimal snowflake string into a channel id.
func ParseChannelID(s string) (discord.ChannelID, error) {
	sf, err := discord.ParseSnowflake(s)
	if err != nil {
		return 0, fmt.Errorf("discordchat: invalid channel id %q: %w", s, err)
	}
	if !sf.IsValid() {
		return 0, fmt.Errorf("discordchat: invalid channel id %q", s)
	}
	return discord.ChannelID(sf), nil
}
