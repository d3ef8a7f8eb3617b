// Package discord feeds chat messages into the command dispatcher and posts
// the replies back to the channel they came from.
package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"server-console/pkg/cmd"
	"server-console/pkg/throttle"
)

// Source is the caller source of commands typed in Discord.
const Source = "discord"

// Dispatcher runs one command line. It is satisfied by *cmd.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, caller cmd.Caller, line string, reply cmd.ReplyFunc) error
}

// Bot is a Discord session bound to a Dispatcher.
type Bot struct {
	dg     *discordgo.Session
	disp   Dispatcher
	prefix string
	log    *zap.Logger

	limiter *throttle.AdaptiveLimiter
	retry   throttle.RetryConfig

	// send posts one message; replaced in tests.
	send func(channelID, content string) error
	ctx  context.Context
}

type Option func(*Bot)

func WithLogger(l *zap.Logger) Option { return func(b *Bot) { b.log = l } }

// WithRetry replaces the retry policy used for posting replies.
func WithRetry(cfg throttle.RetryConfig) Option { return func(b *Bot) { b.retry = cfg } }

// New creates a session for token. Lines must start with prefix or mention
// the bot to be treated as commands.
func New(token, prefix string, disp Dispatcher, opts ...Option) (*Bot, error) {
	if token == "" {
		return nil, errors.New("discord token is empty")
	}
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	b := newBot(prefix, disp, opts...)
	b.dg = dg
	b.send = func(channelID, content string) error {
		_, err := dg.ChannelMessageSend(channelID, content)
		return err
	}
	return b, nil
}

func newBot(prefix string, disp Dispatcher, opts ...Option) *Bot {
	b := &Bot{
		disp:    disp,
		prefix:  prefix,
		log:     zap.NewNop(),
		limiter: throttle.NewAdaptiveLimiter(5, 0.5, 10, 0.5, 0.5),
		retry:   throttle.DefaultRetryConfig(),
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.retry.Logger = b.log
	return b
}

// Run opens the session and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	b.dg.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent
	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onMessageCreate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	b.log.Info("shutting down discord session")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info("discord session ready",
		zap.String("user", r.User.Username),
		zap.Int("guilds", len(r.Guilds)),
	)
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	botID := ""
	if s.State != nil && s.State.User != nil {
		botID = s.State.User.ID
	}
	if m.Author.ID == botID {
		return
	}
	b.handle(m.ChannelID, m.Author.ID, m.Author.Username, m.Content, botID)
}

func (b *Bot) handle(channelID, userID, username, content, botID string) {
	line, ok := commandLine(content, b.prefix, botID)
	if !ok {
		return
	}

	caller := cmd.Caller{ID: userID, Name: username, Source: Source}
	err := b.disp.Dispatch(b.ctx, caller, line, func(msg string) {
		b.reply(channelID, msg)
	})
	if err != nil && !errors.Is(err, cmd.ErrEmptyLine) {
		b.log.Debug("discord command failed", zap.String("user", userID), zap.String("line", line), zap.Error(err))
	}
}

// reply posts msg in one or more code blocks, retrying rate-limited and
// failed requests.
func (b *Bot) reply(channelID, msg string) {
	for _, chunk := range splitMessage(msg, maxMessageLength-len(fence)*2-2) {
		content := fence + "\n" + chunk + "\n" + fence
		err := throttle.Retry(b.ctx, func() error {
			return classify(b.send(channelID, content))
		}, b.limiter, b.retry)
		if err != nil {
			b.log.Warn("failed to send reply", zap.String("channel", channelID), zap.Error(err))
			return
		}
	}
}

// commandLine extracts the command part of a chat message: the text after
// the prefix, or after a leading mention of the bot.
func commandLine(content, prefix, botID string) (string, bool) {
	content = strings.TrimSpace(content)
	if botID != "" {
		for _, mention := range []string{"<@" + botID + ">", "<@!" + botID + ">"} {
			if rest, ok := strings.CutPrefix(content, mention); ok {
				rest = strings.TrimSpace(rest)
				return rest, rest != ""
			}
		}
	}
	if prefix == "" {
		return "", false
	}
	rest, ok := strings.CutPrefix(content, prefix)
	if !ok {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	return rest, rest != ""
}

// httpError exposes the status of a REST failure to throttle.
type httpError struct {
	err  *discordgo.RESTError
	code int
}

func (e *httpError) Error() string   { return e.err.Error() }
func (e *httpError) Unwrap() error   { return e.err }
func (e *httpError) StatusCode() int { return e.code }

// classify maps REST errors so throttle can tell a 429 from a 5xx. Other 4xx
// responses will not succeed on retry and are made fatal.
func classify(err error) error {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) || rest.Response == nil {
		return err
	}
	code := rest.Response.StatusCode
	wrapped := &httpError{err: rest, code: code}
	if code >= 400 && code < 500 && code != 429 {
		return &throttle.FatalError{Err: wrapped}
	}
	return wrapped
}
