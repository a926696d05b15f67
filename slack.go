package main

import (
	"fmt"
	"time"

	"github.com/slack-go/slack"
)

// SlackClient wraps the handful of Slack API calls the bot needs: sending,
// editing, deleting and (un)pinning messages in the report channel, plus
// mention resolution from the configured user mapping.
type SlackClient struct {
	api       *slack.Client
	channelID string
	cfg       *Config
	logger    *Logger
}

// NewSlackClient builds the Slack client. The app-level token enables
// Socket Mode for slash commands.
func NewSlackClient(cfg *Config) *SlackClient {
	api := slack.New(
		cfg.Slack.BotToken,
		slack.OptionAppLevelToken(cfg.Slack.AppToken),
	)
	return &SlackClient{
		api:       api,
		channelID: cfg.Slack.ChannelID,
		cfg:       cfg,
		logger:    GetGlobalLogger(),
	}
}

// API exposes the underlying client for the Socket Mode dispatcher.
func (s *SlackClient) API() *slack.Client {
	return s.api
}

// ChannelID returns the configured report channel.
func (s *SlackClient) ChannelID() string {
	return s.channelID
}

// Send posts a message to the report channel and returns its timestamp,
// which Slack uses as the message id.
func (s *SlackClient) Send(text string) (string, error) {
	return s.SendTo(s.channelID, text)
}

// SendTo posts a message to an arbitrary channel.
func (s *SlackClient) SendTo(channelID, text string) (string, error) {
	_, ts, err := s.api.PostMessage(channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: failed to send message to %s: %v", ErrDelivery, channelID, err)
	}
	return ts, nil
}

// Edit replaces the text of an already sent message.
func (s *SlackClient) Edit(timestamp, text string) error {
	_, _, _, err := s.api.UpdateMessage(s.channelID, timestamp, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("%w: failed to edit message %s: %v", ErrDelivery, timestamp, err)
	}
	return nil
}

// Delete removes a message from the report channel.
func (s *SlackClient) Delete(timestamp string) error {
	_, _, err := s.api.DeleteMessage(s.channelID, timestamp)
	if err != nil {
		return fmt.Errorf("%w: failed to delete message %s: %v", ErrDelivery, timestamp, err)
	}
	return nil
}

// Pin pins a message in the report channel.
func (s *SlackClient) Pin(timestamp string) error {
	if err := s.api.AddPin(s.channelID, slack.NewRefToMessage(s.channelID, timestamp)); err != nil {
		return fmt.Errorf("%w: failed to pin message %s: %v", ErrDelivery, timestamp, err)
	}
	return nil
}

// Unpin unpins a message in the report channel.
func (s *SlackClient) Unpin(timestamp string) error {
	if err := s.api.RemovePin(s.channelID, slack.NewRefToMessage(s.channelID, timestamp)); err != nil {
		return fmt.Errorf("%w: failed to unpin message %s: %v", ErrDelivery, timestamp, err)
	}
	return nil
}

// Permalink returns a link to a message, used to reference the previous
// report from the next one. Failure is non-fatal; callers may store "".
func (s *SlackClient) Permalink(timestamp string) (string, error) {
	link, err := s.api.GetPermalink(&slack.PermalinkParameters{
		Channel: s.channelID,
		Ts:      timestamp,
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to get permalink for %s: %v", ErrDelivery, timestamp, err)
	}
	return link, nil
}

// ResolveMention maps a Trello username to a Slack mention.
func (s *SlackClient) ResolveMention(trelloUsername string) string {
	return s.cfg.ResolveMention(trelloUsername)
}

// SendReportWithPin sends a report message and manages the pin lifecycle:
// the new message links back to the previous report, all previously pinned
// reports in the channel are unpinned and forgotten, and the new message is
// pinned and recorded. Individual pin failures are logged and skipped so a
// flaky Slack call never loses the report itself.
func (s *SlackClient) SendReportWithPin(store *StateStore, text string) error {
	state := store.Load()

	if link := state.LastReportPermalink(s.channelID); link != "" {
		text += fmt.Sprintf("\n\n%s <%s|Previous report>", EMOJI_PAPERCLIP, link)
	}

	stored := state.PinnedMessagesFor(s.channelID)
	s.logger.Infof("Found %d stored pinned messages", len(stored))
	for _, old := range stored {
		if err := s.Unpin(old.Timestamp); err != nil {
			s.logger.Errorf("Failed to unpin superseded message %s: %v", old.Timestamp, err)
		}
		// Forget the record either way: a superseded pin must not be
		// referenced again.
		state.RemovePinnedMessage(old.ChannelID, old.Timestamp)
	}

	ts, err := s.Send(text)
	if err != nil {
		return err
	}

	permalink, err := s.Permalink(ts)
	if err != nil {
		s.logger.Warnf("Could not resolve permalink for report %s: %v", ts, err)
		permalink = ""
	}

	if err := s.Pin(ts); err != nil {
		s.logger.Errorf("Failed to pin report message %s: %v", ts, err)
	} else {
		state.AddPinnedMessage(PinnedMessage{
			ChannelID: s.channelID,
			Timestamp: ts,
			PinnedAt:  time.Now(),
			Permalink: permalink,
		})
		s.logger.Infof("Pinned new report message %s", ts)
	}

	if err := store.Save(state); err != nil {
		return fmt.Errorf("failed to persist pin bookkeeping: %w", err)
	}

	return nil
}
