package main

import (
	"time"
)

// Bot wires the Trello client, the classifier, the reporter, the Slack
// client and the state store together. All jobs, scheduled or on demand,
// run through its sequential job queue so state-store writes never
// interleave.
type Bot struct {
	cfg        *Config
	trello     *TrelloClient
	slack      *SlackClient
	store      *StateStore
	classifier *Classifier
	reporter   *Reporter
	queue      *JobQueue
	logger     *Logger
}

// NewBot builds the bot from a validated configuration.
func NewBot(cfg *Config) *Bot {
	classifier := NewClassifier(cfg)
	slackClient := NewSlackClient(cfg)
	return &Bot{
		cfg:        cfg,
		trello:     NewTrelloClient(cfg),
		slack:      slackClient,
		store:      NewStateStore(cfg.Settings.StateFile),
		classifier: classifier,
		reporter:   NewReporter(classifier, slackClient.ResolveMention),
		queue:      NewJobQueue(),
		logger:     GetGlobalLogger(),
	}
}

// RunDailyReport fetches all boards, refreshes the in-progress tracking,
// renders the daily report and posts it with the pin lifecycle. Board
// failures are logged and shown in the report; they never abort the run.
func (b *Bot) RunDailyReport() error {
	boards, failures := b.trello.FetchBoards(b.cfg.Trello.BoardIDs, false)

	state := b.store.Load()
	b.updateProgressTracking(state, boards, time.Now())
	if err := b.store.Save(state); err != nil {
		b.logger.Errorf("Failed to save progress tracking: %v", err)
	}

	report := b.reporter.BuildDailyReport(boards, failures, state.InProgressSince, time.Now())
	if err := b.slack.SendReportWithPin(b.store, report); err != nil {
		return err
	}

	b.logger.Info("Daily report sent successfully")
	return nil
}

// RunWeeklyReport fetches all boards including archived cards, renders the
// weekly statistics and posts them. Weekly reports are not pinned.
func (b *Bot) RunWeeklyReport() error {
	boards, failures := b.trello.FetchBoards(b.cfg.Trello.BoardIDs, true)

	report := b.reporter.BuildWeeklyReport(boards, failures, time.Now())
	if _, err := b.slack.Send(report); err != nil {
		return err
	}

	b.logger.Info("Weekly statistics report sent successfully")
	return nil
}

// updateProgressTracking records when cards enter an in-progress list and
// forgets cards that left one, feeding long-running detection. Boards that
// failed to fetch are left untouched so their cards keep their timestamps.
func (b *Bot) updateProgressTracking(state *State, boards []*Board, now time.Time) {
	for _, board := range boards {
		seen := make(map[string]bool)
		for _, card := range board.Cards {
			key := cardKey(board.ID, card.ID)
			seen[key] = true
			if b.classifier.IsInProgressList(board.ListName(card.ListID)) {
				if _, ok := state.InProgressSince[key]; !ok {
					state.InProgressSince[key] = now
				}
			} else {
				delete(state.InProgressSince, key)
			}
		}
		// Cards that vanished from the board entirely.
		prefix := board.ID + "_"
		for key := range state.InProgressSince {
			if len(key) > len(prefix) && key[:len(prefix)] == prefix && !seen[key] {
				delete(state.InProgressSince, key)
			}
		}
	}
}
