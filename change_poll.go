package main

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// CardAlert is one notification produced by a change poll: a card that just
// moved to a done list, or new assignees on a card.
type CardAlert struct {
	Text string
}

// RunChangePoll fetches the boards, diffs them against the last-seen
// snapshot, sends individual alerts for newly-completed cards and new
// assignments, then overwrites the snapshot wholesale. Boards that failed
// to fetch keep their previous snapshot entries so a flaky cycle does not
// produce phantom "just completed" alerts later.
func (b *Bot) RunChangePoll() error {
	boards, failures := b.trello.FetchBoards(b.cfg.Trello.BoardIDs, false)
	for boardID, err := range failures {
		b.logger.Errorf("Change poll skipping board %s: %v", boardID, err)
	}

	state := b.store.Load()
	now := time.Now()

	alerts := b.diffBoards(state, boards)
	b.updateProgressTracking(state, boards, now)

	if err := b.store.Save(state); err != nil {
		b.logger.Errorf("Failed to save change poll state: %v", err)
	}

	for _, alert := range alerts {
		if _, err := b.slack.Send(alert.Text); err != nil {
			b.logger.Errorf("Failed to deliver change alert: %v", err)
		}
	}

	if len(alerts) > 0 {
		b.logger.Infof("Change poll delivered %d alerts", len(alerts))
	}
	return nil
}

// diffBoards compares fetched boards against the snapshot in state,
// collects alerts and replaces the snapshot entries for the boards that
// were fetched successfully.
func (b *Bot) diffBoards(state *State, boards []*Board) []CardAlert {
	var alerts []CardAlert

	for _, board := range boards {
		fresh := make(map[string]CardSnapshot)

		for _, card := range board.Cards {
			key := cardKey(board.ID, card.ID)
			listName := board.ListName(card.ListID)
			completed := b.classifier.IsDoneList(listName)

			members := append([]string(nil), card.Members...)
			sort.Strings(members)
			fresh[key] = CardSnapshot{
				Completed: completed,
				ListID:    card.ListID,
				Members:   members,
			}

			previous, known := state.CardSnapshot[key]

			if completed {
				// Alert only on the transition, not on the first
				// sighting of an already-done card.
				if known && !previous.Completed {
					alerts = append(alerts, CardAlert{Text: fmt.Sprintf(
						"%s *Card completed!*\n\n%s Board: %s\n%s Card: <%s|%s>",
						EMOJI_CHECK, EMOJI_BOARD, board.Name, EMOJI_UNCATEGORIZED, card.ShortURL, card.Name)})
				}
				continue
			}

			if known {
				if added := newMembers(previous.Members, members); len(added) > 0 {
					alerts = append(alerts, CardAlert{Text: fmt.Sprintf(
						"%s *New assignments!*\n\n%s Board: %s\n%s Card: <%s|%s>\n\n%s",
						EMOJI_PEOPLE, EMOJI_BOARD, board.Name, EMOJI_UNCATEGORIZED, card.ShortURL, card.Name,
						b.mentionList(added))})
				}
			}
		}

		// Overwrite this board's slice of the snapshot; cards that
		// disappeared from the board are dropped with it.
		prefix := board.ID + "_"
		for key := range state.CardSnapshot {
			if strings.HasPrefix(key, prefix) {
				delete(state.CardSnapshot, key)
			}
		}
		for key, snap := range fresh {
			state.CardSnapshot[key] = snap
		}
	}

	return alerts
}

// newMembers returns entries in current that are missing from previous.
// Both slices are expected sorted.
func newMembers(previous, current []string) []string {
	seen := make(map[string]bool, len(previous))
	for _, m := range previous {
		seen[m] = true
	}
	var added []string
	for _, m := range current {
		if !seen[m] {
			added = append(added, m)
		}
	}
	return added
}

func (b *Bot) mentionList(usernames []string) string {
	var tags []string
	for _, u := range usernames {
		tags = append(tags, b.slack.ResolveMention(u))
	}
	return strings.Join(tags, " ")
}
