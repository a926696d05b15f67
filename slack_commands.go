package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
)

// RunSocketMode connects to Slack over Socket Mode and dispatches slash
// commands until the context is cancelled. Commands are acknowledged
// immediately and executed through the sequential job queue, so they never
// run concurrently with a scheduled job.
func (b *Bot) RunSocketMode(ctx context.Context) error {
	socket := socketmode.New(b.slack.API())

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-socket.Events:
				if !ok {
					return
				}
				b.handleSocketEvent(socket, evt)
			}
		}
	}()

	return socket.RunContext(ctx)
}

func (b *Bot) handleSocketEvent(socket *socketmode.Client, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		b.logger.Info("Slack Socket Mode connecting")
	case socketmode.EventTypeConnected:
		b.logger.Info("Slack Socket Mode connected")
	case socketmode.EventTypeConnectionError:
		b.logger.Error("Slack Socket Mode connection error")
	case socketmode.EventTypeSlashCommand:
		cmd, ok := evt.Data.(slack.SlashCommand)
		if !ok {
			return
		}
		if payload := b.ackPayload(cmd.Command); payload != nil {
			socket.Ack(*evt.Request, payload)
		} else {
			socket.Ack(*evt.Request)
		}
		b.dispatchCommand(cmd)
	}
}

// ackPayload returns the immediate ephemeral acknowledgment for a command.
// Report commands get a progress note; the rest are acknowledged silently.
func (b *Bot) ackPayload(command string) map[string]interface{} {
	switch command {
	case "/ct", "/wr", "/mt":
		return map[string]interface{}{"text": "⏳ Generating report..."}
	default:
		return nil
	}
}

// dispatchCommand routes a slash command onto the job queue.
func (b *Bot) dispatchCommand(cmd slack.SlashCommand) {
	b.logger.Infof("Received %s command from user %s in channel %s", cmd.Command, cmd.UserName, cmd.ChannelName)

	b.queue.Enqueue(Job{
		Kind: "command " + cmd.Command,
		Run: func() error {
			return b.runCommand(cmd)
		},
	})
}

func (b *Bot) runCommand(cmd slack.SlashCommand) error {
	switch cmd.Command {
	case "/start":
		_, err := b.slack.SendTo(cmd.ChannelID, b.helpText())
		return err
	case "/ct":
		return b.RunDailyReport()
	case "/wr":
		return b.RunWeeklyReport()
	case "/mt":
		return b.runPersonalReport(cmd)
	case "/stored":
		return b.runStoredCommand(cmd)
	case "/unpin":
		return b.runUnpinCommand(cmd)
	case "/clear_stored":
		return b.runClearStoredCommand(cmd)
	case "/debug_file":
		return b.runDebugFileCommand(cmd)
	default:
		_, err := b.slack.SendTo(cmd.ChannelID,
			fmt.Sprintf("%s Unknown command %s. Try /start for the command list.", EMOJI_CROSS, cmd.Command))
		return err
	}
}

func (b *Bot) helpText() string {
	return fmt.Sprintf(`%s *Trello Bot activated!*

Available commands:
• /ct - Current report for all boards
• /wr - Weekly statistics
• /mt - My tasks (overdue and current)
• /stored - Show stored pinned messages
• /unpin MESSAGE_TS - Unpin a report message
• /clear_stored - Clear stored pinned messages
• /debug_file - Show state file contents
• /start - Show this message

The bot automatically:
• Notifies about completed cards
• Notifies about new assignments
• Sends daily reports (Mon-Sat at %s)
• Sends weekly statistics (Mon at %s)

%s - card in progress for %d days or more`,
		EMOJI_ROBOT,
		b.cfg.Settings.DailyReportTime, b.cfg.Settings.WeeklyReportTime,
		EMOJI_LONG_RUNNING, int(longRunningThreshold/(24*time.Hour)))
}

// runPersonalReport handles /mt: find the Trello identity of the requesting
// Slack user and report their overdue and current cards.
func (b *Bot) runPersonalReport(cmd slack.SlashCommand) error {
	trelloUsername, ok := b.cfg.TrelloUsernameForSlackID(cmd.UserID)
	if !ok {
		_, err := b.slack.SendTo(cmd.ChannelID,
			fmt.Sprintf("%s User <@%s> not found in the user mapping", EMOJI_CROSS, cmd.UserID))
		return err
	}

	boards, failures := b.trello.FetchBoards(b.cfg.Trello.BoardIDs, false)
	state := b.store.Load()

	report := b.reporter.BuildPersonalReport(trelloUsername, boards, failures, state.InProgressSince, time.Now())
	_, err := b.slack.SendTo(cmd.ChannelID, report)
	return err
}

func (b *Bot) runStoredCommand(cmd slack.SlashCommand) error {
	state := b.store.Load()
	stored := state.PinnedMessagesFor(b.slack.ChannelID())

	if len(stored) == 0 {
		_, err := b.slack.SendTo(cmd.ChannelID, fmt.Sprintf("%s No stored pinned messages", EMOJI_PIN))
		return err
	}

	lines := []string{fmt.Sprintf("%s Stored pinned messages:", EMOJI_PIN)}
	for _, msg := range stored {
		lines = append(lines, fmt.Sprintf("• %s (%s)", msg.Timestamp, msg.PinnedAt.Format("2006-01-02 15:04:05")))
	}
	_, err := b.slack.SendTo(cmd.ChannelID, strings.Join(lines, "\n"))
	return err
}

// runUnpinCommand handles /unpin MESSAGE_TS. An unknown id gets a
// user-visible "not found" response and the state file stays untouched.
func (b *Bot) runUnpinCommand(cmd slack.SlashCommand) error {
	arg := strings.TrimSpace(cmd.Text)
	if arg == "" {
		_, err := b.slack.SendTo(cmd.ChannelID, fmt.Sprintf("%s Usage: /unpin MESSAGE_TS", EMOJI_CROSS))
		return err
	}

	state := b.store.Load()
	found := false
	for _, msg := range state.PinnedMessagesFor(b.slack.ChannelID()) {
		if msg.Timestamp == arg {
			found = true
			break
		}
	}
	if !found {
		_, err := b.slack.SendTo(cmd.ChannelID,
			fmt.Sprintf("%s Pinned message %s not found", EMOJI_CROSS, arg))
		return err
	}

	if err := b.slack.Unpin(arg); err != nil {
		b.logger.Errorf("Failed to unpin message %s: %v", arg, err)
		_, sendErr := b.slack.SendTo(cmd.ChannelID,
			fmt.Sprintf("%s Failed to unpin message %s", EMOJI_CROSS, arg))
		return sendErr
	}

	state.RemovePinnedMessage(b.slack.ChannelID(), arg)
	if err := b.store.Save(state); err != nil {
		return fmt.Errorf("failed to save state after unpin: %w", err)
	}

	_, err := b.slack.SendTo(cmd.ChannelID, fmt.Sprintf("%s Message %s unpinned", EMOJI_CHECK, arg))
	return err
}

func (b *Bot) runClearStoredCommand(cmd slack.SlashCommand) error {
	state := b.store.Load()

	for _, msg := range state.PinnedMessagesFor(b.slack.ChannelID()) {
		if err := b.slack.Unpin(msg.Timestamp); err != nil {
			b.logger.Errorf("Failed to unpin message %s while clearing: %v", msg.Timestamp, err)
		}
		state.RemovePinnedMessage(msg.ChannelID, msg.Timestamp)
	}

	if err := b.store.Save(state); err != nil {
		return fmt.Errorf("failed to save state after clearing pins: %w", err)
	}

	_, err := b.slack.SendTo(cmd.ChannelID, fmt.Sprintf("%s All stored pinned messages cleared", EMOJI_TRASH))
	return err
}

func (b *Bot) runDebugFileCommand(cmd slack.SlashCommand) error {
	contents, err := b.store.Dump()
	if err != nil {
		_, sendErr := b.slack.SendTo(cmd.ChannelID, fmt.Sprintf("%s %v", EMOJI_FILE, err))
		return sendErr
	}

	_, err = b.slack.SendTo(cmd.ChannelID, fmt.Sprintf("%s File contents:\n```%s```", EMOJI_FILE, contents))
	return err
}
