package main

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ClassifiedCard is a card decorated with its board, list name and derived
// category, ready for formatting.
type ClassifiedCard struct {
	Card
	BoardID   string
	BoardName string
	ListName  string
	Category  Category
}

// Reporter turns classified cards into the text reports the bot posts.
// Formatting is pure: the same boards and clock always yield the same text.
type Reporter struct {
	classifier     *Classifier
	resolveMention func(trelloUsername string) string
}

// NewReporter builds a reporter using the given mention resolver.
func NewReporter(classifier *Classifier, resolveMention func(string) string) *Reporter {
	return &Reporter{classifier: classifier, resolveMention: resolveMention}
}

// ClassifyBoards flattens boards into classified cards ordered by board,
// then list, then card title. inProgressSince supplies the list-entry
// timestamps tracked in the state store.
func (r *Reporter) ClassifyBoards(boards []*Board, inProgressSince map[string]time.Time, now time.Time) []ClassifiedCard {
	var cards []ClassifiedCard
	for _, board := range boards {
		for _, card := range board.Cards {
			card.InProgressSince = inProgressSince[cardKey(board.ID, card.ID)]
			listName := board.ListName(card.ListID)
			cards = append(cards, ClassifiedCard{
				Card:      card,
				BoardID:   board.ID,
				BoardName: board.Name,
				ListName:  listName,
				Category:  r.classifier.Classify(card, listName, now),
			})
		}
	}

	sort.Slice(cards, func(i, j int) bool {
		if cards[i].BoardName != cards[j].BoardName {
			return cards[i].BoardName < cards[j].BoardName
		}
		if cards[i].ListName != cards[j].ListName {
			return cards[i].ListName < cards[j].ListName
		}
		return cards[i].Name < cards[j].Name
	})

	return cards
}

// cardLine renders one report line: category emoji, linked card title and
// assignee mentions.
func (r *Reporter) cardLine(card ClassifiedCard) string {
	line := fmt.Sprintf("• %s <%s|%s>", card.Category.Emoji(), card.ShortURL, card.Name)
	if mentions := r.mentions(card.Members); mentions != "" {
		line += " - " + mentions
	}
	return line
}

func (r *Reporter) mentions(members []string) string {
	var tags []string
	for _, member := range members {
		tags = append(tags, r.resolveMention(member))
	}
	return strings.Join(tags, " ")
}

// failureLines renders one error line per unreachable board, in a stable
// order, so the report says explicitly which boards are missing.
func failureLines(failures map[string]error) []string {
	ids := make([]string, 0, len(failures))
	for id := range failures {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var lines []string
	for _, id := range ids {
		lines = append(lines, fmt.Sprintf("%s Error getting data for board %s", EMOJI_CROSS, id))
	}
	return lines
}

// BuildDailyReport renders the daily report: per-board overdue and current
// sections with long-running markers, plus a summary.
func (r *Reporter) BuildDailyReport(boards []*Board, failures map[string]error, inProgressSince map[string]time.Time, now time.Time) string {
	cards := r.ClassifyBoards(boards, inProgressSince, now)

	parts := []string{fmt.Sprintf("%s *Daily Trello Report*", EMOJI_CHART)}

	totalOverdue := 0
	totalCurrent := 0

	for _, board := range boards {
		var overdue, current []ClassifiedCard
		for _, card := range cards {
			if card.BoardID != board.ID {
				continue
			}
			switch card.Category {
			case CategoryOverdue:
				overdue = append(overdue, card)
			case CategoryInProgress, CategoryLongRunning:
				current = append(current, card)
			}
		}

		totalOverdue += len(overdue)
		totalCurrent += len(current)

		if len(overdue) == 0 && len(current) == 0 {
			continue
		}

		parts = append(parts, fmt.Sprintf("\n%s *%s*", EMOJI_BOARD, board.Name))
		if len(overdue) > 0 {
			parts = append(parts, fmt.Sprintf("%s *Overdue cards (%d):*", EMOJI_OVERDUE, len(overdue)))
			for _, card := range overdue {
				parts = append(parts, r.cardLine(card))
			}
		}
		if len(current) > 0 {
			parts = append(parts, fmt.Sprintf("%s *Current (%d):*", EMOJI_IN_PROGRESS, len(current)))
			for _, card := range current {
				parts = append(parts, r.cardLine(card))
			}
		}
	}

	parts = append(parts, failureLines(failures)...)

	if totalOverdue == 0 && totalCurrent == 0 {
		parts = append(parts, fmt.Sprintf("\n%s All tasks completed on time!", EMOJI_CHECK))
	} else {
		summary := fmt.Sprintf("\n%s *Summary:*", EMOJI_TRENDING_UP)
		if totalOverdue > 0 {
			summary += fmt.Sprintf("\n• Overdue: %d", totalOverdue)
		}
		if totalCurrent > 0 {
			summary += fmt.Sprintf("\n• Current: %d", totalCurrent)
		}
		parts = append(parts, summary)
	}

	return strings.Join(parts, "\n")
}

// BuildWeeklyReport renders per-board completed-this-week and overdue
// counts, overall totals and the list of completed cards, newest first.
// Boards should be fetched including archived cards so cards filed away
// during the week still count.
func (r *Reporter) BuildWeeklyReport(boards []*Board, failures map[string]error, now time.Time) string {
	weekStart := now.Add(-completedWindow)

	parts := []string{fmt.Sprintf("%s *Weekly Trello Statistics*", EMOJI_TRENDING_UP)}

	type completedCard struct {
		ClassifiedCard
		completedAt time.Time
	}

	totalCompleted := 0
	totalOverdue := 0
	var allCompleted []completedCard

	for _, board := range boards {
		cards := r.ClassifyBoards([]*Board{board}, nil, now)

		var completed []completedCard
		overdueCount := 0
		for _, card := range cards {
			switch card.Category {
			case CategoryCompleted:
				if card.LastActivity != nil && !card.LastActivity.Before(weekStart) {
					completed = append(completed, completedCard{card, *card.LastActivity})
				}
			case CategoryOverdue:
				overdueCount++
			}
		}

		totalCompleted += len(completed)
		totalOverdue += overdueCount
		allCompleted = append(allCompleted, completed...)

		if len(completed) > 0 || overdueCount > 0 {
			parts = append(parts, fmt.Sprintf("%s *%s*", EMOJI_BOARD, board.Name))
			parts = append(parts, fmt.Sprintf("%s Completed this week: %d", EMOJI_CHECK, len(completed)))
			parts = append(parts, fmt.Sprintf("%s Currently overdue: %d", EMOJI_OVERDUE, overdueCount))
		}
	}

	parts = append(parts, failureLines(failures)...)

	parts = append(parts, fmt.Sprintf("\n%s *Overall Statistics:*", EMOJI_CHART))
	parts = append(parts, fmt.Sprintf("%s Total completed this week: %d", EMOJI_CHECK, totalCompleted))
	parts = append(parts, fmt.Sprintf("%s Total overdue: %d", EMOJI_OVERDUE, totalOverdue))

	if len(allCompleted) > 0 {
		parts = append(parts, fmt.Sprintf("\n%s *Completed tasks this week:*", EMOJI_UNCATEGORIZED))

		sort.SliceStable(allCompleted, func(i, j int) bool {
			return allCompleted[i].completedAt.After(allCompleted[j].completedAt)
		})

		for _, card := range allCompleted {
			parts = append(parts, r.cardLine(card.ClassifiedCard))
			parts = append(parts, fmt.Sprintf("  %s %s | %s %s",
				EMOJI_CALENDAR, card.completedAt.Format("02.01"), EMOJI_BOARD, card.BoardName))
		}
	}

	return strings.Join(parts, "\n")
}

// BuildPersonalReport renders the overdue and current cards assigned to one
// Trello user, completed cards excluded.
func (r *Reporter) BuildPersonalReport(trelloUsername string, boards []*Board, failures map[string]error, inProgressSince map[string]time.Time, now time.Time) string {
	cards := r.ClassifyBoards(boards, inProgressSince, now)

	var overdue, current []ClassifiedCard
	for _, card := range cards {
		if !cardAssignedTo(card.Card, trelloUsername) {
			continue
		}
		switch card.Category {
		case CategoryOverdue:
			overdue = append(overdue, card)
		case CategoryInProgress, CategoryLongRunning:
			current = append(current, card)
		}
	}

	parts := []string{fmt.Sprintf("%s *My tasks (%s)*", EMOJI_PERSON, trelloUsername)}

	if len(overdue) > 0 {
		parts = append(parts, fmt.Sprintf("%s *Overdue (%d):*", EMOJI_OVERDUE, len(overdue)))
		for _, card := range overdue {
			parts = append(parts, fmt.Sprintf("• %s <%s|%s>", card.Category.Emoji(), card.ShortURL, card.Name))
			parts = append(parts, fmt.Sprintf("  %s %s → %s", EMOJI_UNCATEGORIZED, card.BoardName, card.ListName))
		}
	}

	if len(current) > 0 {
		parts = append(parts, fmt.Sprintf("\n%s *Current (%d):*", EMOJI_IN_PROGRESS, len(current)))
		for _, card := range current {
			parts = append(parts, fmt.Sprintf("• %s <%s|%s>", card.Category.Emoji(), card.ShortURL, card.Name))
			parts = append(parts, fmt.Sprintf("  %s %s → %s", EMOJI_UNCATEGORIZED, card.BoardName, card.ListName))
		}
	}

	parts = append(parts, failureLines(failures)...)

	if len(overdue) == 0 && len(current) == 0 {
		parts = append(parts, fmt.Sprintf("%s You have no active tasks!", EMOJI_CHECK))
	}

	return strings.Join(parts, "\n")
}

func cardAssignedTo(card Card, trelloUsername string) bool {
	for _, member := range card.Members {
		if member == trelloUsername {
			return true
		}
	}
	return false
}
