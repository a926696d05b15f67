package main

import "time"

// Category Emojis
const (
	EMOJI_COMPLETED     = "✅"
	EMOJI_IN_PROGRESS   = "🔄"
	EMOJI_OVERDUE       = "⏰"
	EMOJI_LONG_RUNNING  = "🐌"
	EMOJI_UNCATEGORIZED = "📋"
)

// General Emojis
const (
	EMOJI_CHART       = "📊"
	EMOJI_TRENDING_UP = "📈"
	EMOJI_CALENDAR    = "📅"
	EMOJI_BOARD       = "🗂️"
	EMOJI_PERSON      = "👤"
	EMOJI_PEOPLE      = "👥"
	EMOJI_PIN         = "📌"
	EMOJI_PAPERCLIP   = "📎"
	EMOJI_FILE        = "📄"
	EMOJI_TRASH       = "🗑️"
	EMOJI_CHECK       = "✅"
	EMOJI_CROSS       = "❌"
	EMOJI_ROBOT       = "🤖"
)

// Classification keyword tables. Matching is case-insensitive substring
// matching on list names; precedence between categories is fixed in
// Classifier.Classify and must stay: completed > overdue > long-running >
// in-progress > uncategorized.
var (
	doneListKeywords       = []string{"done", "completed", "finished"}
	inProgressListKeywords = []string{"in progress", "doing", "working", "review", "qa"}
)

// longRunningThreshold is how long a card may sit in an in-progress list
// before it gets the snail marker. A card at exactly the threshold counts
// as long-running.
const longRunningThreshold = 3 * 24 * time.Hour

// completedWindow is how far back the weekly report looks for done cards.
const completedWindow = 7 * 24 * time.Hour
