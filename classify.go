package main

import (
	"strings"
	"time"
)

// Category is the derived status bucket for a card. It is recomputed every
// cycle from the list name, the due date and the time spent in progress,
// never stored.
type Category int

const (
	CategoryUncategorized Category = iota
	CategoryInProgress
	CategoryLongRunning
	CategoryOverdue
	CategoryCompleted
)

// String returns the human-readable category name.
func (c Category) String() string {
	switch c {
	case CategoryCompleted:
		return "completed"
	case CategoryOverdue:
		return "overdue"
	case CategoryLongRunning:
		return "long-running"
	case CategoryInProgress:
		return "in-progress"
	default:
		return "uncategorized"
	}
}

// Emoji returns the report marker for the category.
func (c Category) Emoji() string {
	switch c {
	case CategoryCompleted:
		return EMOJI_COMPLETED
	case CategoryOverdue:
		return EMOJI_OVERDUE
	case CategoryLongRunning:
		return EMOJI_LONG_RUNNING
	case CategoryInProgress:
		return EMOJI_IN_PROGRESS
	default:
		return EMOJI_UNCATEGORIZED
	}
}

// Classifier buckets cards by list name and due date. The keyword tables
// normally come from the configuration and fall back to the built-in sets.
type Classifier struct {
	doneKeywords       []string
	inProgressKeywords []string
}

// NewClassifier builds a classifier from the configured list keyword sets.
func NewClassifier(cfg *Config) *Classifier {
	return &Classifier{
		doneKeywords:       cfg.Lists.DoneStatus,
		inProgressKeywords: cfg.Lists.InProgressStatus,
	}
}

// Classify maps a card plus the name of the list holding it to a category.
//
// Precedence, highest first: completed > overdue > long-running >
// in-progress > uncategorized. A "done" list wins regardless of due date;
// an overdue card in an in-progress list is overdue, never merely
// long-running.
func (cl *Classifier) Classify(card Card, listName string, now time.Time) Category {
	name := strings.ToLower(listName)

	if containsAnyKeyword(name, cl.doneKeywords) {
		return CategoryCompleted
	}

	overdue := card.Due != nil && card.Due.Before(now)

	if containsAnyKeyword(name, cl.inProgressKeywords) {
		if overdue {
			return CategoryOverdue
		}
		if !card.InProgressSince.IsZero() && now.Sub(card.InProgressSince) >= longRunningThreshold {
			return CategoryLongRunning
		}
		return CategoryInProgress
	}

	if overdue {
		return CategoryOverdue
	}

	return CategoryUncategorized
}

// IsDoneList reports whether a list name marks cards as completed.
func (cl *Classifier) IsDoneList(listName string) bool {
	return containsAnyKeyword(strings.ToLower(listName), cl.doneKeywords)
}

// IsInProgressList reports whether a list name marks cards as in progress.
func (cl *Classifier) IsInProgressList(listName string) bool {
	return containsAnyKeyword(strings.ToLower(listName), cl.inProgressKeywords)
}

func containsAnyKeyword(lowerName string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lowerName, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
