package main

import (
	"strings"
	"testing"
	"time"
)

func testBot() *Bot {
	cfg := &Config{}
	cfg.Slack.BotToken = "xoxb-test"
	cfg.Slack.AppToken = "xapp-test"
	cfg.Slack.ChannelID = "C123"
	cfg.UserMapping = map[string]string{"alice": "U111"}
	cfg.applyDefaults()

	classifier := NewClassifier(cfg)
	slackClient := NewSlackClient(cfg)
	return &Bot{
		cfg:        cfg,
		slack:      slackClient,
		classifier: classifier,
		reporter:   NewReporter(classifier, slackClient.ResolveMention),
		logger:     GetGlobalLogger(),
	}
}

func boardWithCard(listID, listName string, card Card) *Board {
	card.ListID = listID
	return &Board{
		ID:   "b1",
		Name: "Eng",
		Lists: []List{
			{ID: "doing", Name: "Doing"},
			{ID: "done", Name: "Done"},
		},
		Cards: []Card{card},
	}
}

func TestDiffBoardsAlertsOnCompletion(t *testing.T) {
	bot := testBot()
	state := NewState()

	card := Card{ID: "c1", Name: "Fix bug", ShortURL: "https://trello.com/c/c1"}

	// First poll: card in Doing, no alert, snapshot recorded.
	alerts := bot.diffBoards(state, []*Board{boardWithCard("doing", "Doing", card)})
	if len(alerts) != 0 {
		t.Fatalf("unexpected alerts on first sighting: %v", alerts)
	}
	if snap, ok := state.CardSnapshot[cardKey("b1", "c1")]; !ok || snap.Completed {
		t.Fatalf("snapshot not recorded correctly: %+v", state.CardSnapshot)
	}

	// Second poll: card moved to Done, one completion alert.
	alerts = bot.diffBoards(state, []*Board{boardWithCard("done", "Done", card)})
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if !strings.Contains(alerts[0].Text, "Card completed!") || !strings.Contains(alerts[0].Text, "Fix bug") {
		t.Errorf("unexpected alert text: %s", alerts[0].Text)
	}

	// Third poll: still done, no repeat alert.
	alerts = bot.diffBoards(state, []*Board{boardWithCard("done", "Done", card)})
	if len(alerts) != 0 {
		t.Errorf("repeated completion alert: %v", alerts)
	}
}

func TestDiffBoardsNoAlertForAlreadyDoneCardOnFirstSighting(t *testing.T) {
	bot := testBot()
	state := NewState()

	card := Card{ID: "c1", Name: "Old card", ShortURL: "u"}
	alerts := bot.diffBoards(state, []*Board{boardWithCard("done", "Done", card)})
	if len(alerts) != 0 {
		t.Errorf("alerted on a card that was already done: %v", alerts)
	}
}

func TestDiffBoardsAlertsOnNewAssignment(t *testing.T) {
	bot := testBot()
	state := NewState()

	card := Card{ID: "c1", Name: "Fix bug", ShortURL: "u", Members: []string{"bob"}}
	bot.diffBoards(state, []*Board{boardWithCard("doing", "Doing", card)})

	card.Members = []string{"bob", "alice"}
	alerts := bot.diffBoards(state, []*Board{boardWithCard("doing", "Doing", card)})

	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if !strings.Contains(alerts[0].Text, "New assignments!") {
		t.Errorf("unexpected alert text: %s", alerts[0].Text)
	}
	// alice is mapped to a Slack ID, bob keeps the plain fallback.
	if !strings.Contains(alerts[0].Text, "<@U111>") {
		t.Errorf("mapped mention missing: %s", alerts[0].Text)
	}
	if strings.Contains(alerts[0].Text, "@bob") {
		t.Errorf("existing member mentioned as new: %s", alerts[0].Text)
	}
}

func TestDiffBoardsDropsVanishedCards(t *testing.T) {
	bot := testBot()
	state := NewState()

	card := Card{ID: "c1", Name: "Fix bug", ShortURL: "u"}
	bot.diffBoards(state, []*Board{boardWithCard("doing", "Doing", card)})

	empty := &Board{ID: "b1", Name: "Eng", Lists: []List{{ID: "doing", Name: "Doing"}}}
	bot.diffBoards(state, []*Board{empty})

	if len(state.CardSnapshot) != 0 {
		t.Errorf("snapshot kept vanished cards: %+v", state.CardSnapshot)
	}
}

func TestDiffBoardsKeepsSnapshotForFailedBoards(t *testing.T) {
	bot := testBot()
	state := NewState()

	card := Card{ID: "c1", Name: "Fix bug", ShortURL: "u"}
	bot.diffBoards(state, []*Board{boardWithCard("doing", "Doing", card)})

	// The board failed to fetch this cycle: diffBoards never sees it, so
	// its snapshot entries survive untouched.
	bot.diffBoards(state, nil)

	if _, ok := state.CardSnapshot[cardKey("b1", "c1")]; !ok {
		t.Errorf("snapshot lost for unfetched board: %+v", state.CardSnapshot)
	}
}

func TestUpdateProgressTracking(t *testing.T) {
	bot := testBot()
	state := NewState()
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	card := Card{ID: "c1", Name: "Fix bug"}
	key := cardKey("b1", "c1")

	// Card enters an in-progress list: timestamp recorded.
	bot.updateProgressTracking(state, []*Board{boardWithCard("doing", "Doing", card)}, now)
	if got, ok := state.InProgressSince[key]; !ok || !got.Equal(now) {
		t.Fatalf("in-progress timestamp not recorded: %+v", state.InProgressSince)
	}

	// Still in progress later: timestamp preserved, not reset.
	later := now.Add(24 * time.Hour)
	bot.updateProgressTracking(state, []*Board{boardWithCard("doing", "Doing", card)}, later)
	if got := state.InProgressSince[key]; !got.Equal(now) {
		t.Errorf("timestamp reset: got %v, want %v", got, now)
	}

	// Card moves to Done: tracking dropped.
	bot.updateProgressTracking(state, []*Board{boardWithCard("done", "Done", card)}, later)
	if _, ok := state.InProgressSince[key]; ok {
		t.Errorf("tracking kept after leaving in-progress list: %+v", state.InProgressSince)
	}
}

func TestUpdateProgressTrackingDropsVanishedCards(t *testing.T) {
	bot := testBot()
	state := NewState()
	now := time.Now()

	card := Card{ID: "c1", Name: "Fix bug"}
	bot.updateProgressTracking(state, []*Board{boardWithCard("doing", "Doing", card)}, now)

	empty := &Board{ID: "b1", Name: "Eng", Lists: []List{{ID: "doing", Name: "Doing"}}}
	bot.updateProgressTracking(state, []*Board{empty}, now)

	if len(state.InProgressSince) != 0 {
		t.Errorf("tracking kept vanished cards: %+v", state.InProgressSince)
	}
}
