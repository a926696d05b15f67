package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// stateVersion is the current record shape of the state file. Bump it when
// adding fields so older files can be migrated explicitly instead of being
// silently misread.
const stateVersion = 1

// PinnedMessage records one live pinned report message. Once superseded the
// record is removed and its timestamp is never referenced again.
type PinnedMessage struct {
	ChannelID string    `json:"channel_id"`
	Timestamp string    `json:"message_ts"`
	PinnedAt  time.Time `json:"pinned_at"`
	Permalink string    `json:"permalink,omitempty"`
}

// CardSnapshot is the last observed state of one card, kept only to detect
// just-completed and just-assigned transitions between polls.
type CardSnapshot struct {
	Completed bool     `json:"completed"`
	ListID    string   `json:"list_id"`
	Members   []string `json:"members"`
}

// State is everything the bot persists between runs.
type State struct {
	Version        int                     `json:"version"`
	PinnedMessages []PinnedMessage         `json:"pinned_messages"`
	CardSnapshot   map[string]CardSnapshot `json:"card_snapshot"`
	// InProgressSince records when a card was first seen in an
	// in-progress list, keyed like CardSnapshot by boardID_cardID.
	InProgressSince map[string]time.Time `json:"in_progress_since"`
}

// NewState returns an empty state at the current version.
func NewState() *State {
	return &State{
		Version:         stateVersion,
		CardSnapshot:    make(map[string]CardSnapshot),
		InProgressSince: make(map[string]time.Time),
	}
}

// cardKey builds the snapshot key for a card.
func cardKey(boardID, cardID string) string {
	return boardID + "_" + cardID
}

// AddPinnedMessage records a newly pinned report message, skipping
// duplicates.
func (s *State) AddPinnedMessage(msg PinnedMessage) {
	for _, existing := range s.PinnedMessages {
		if existing.ChannelID == msg.ChannelID && existing.Timestamp == msg.Timestamp {
			return
		}
	}
	s.PinnedMessages = append(s.PinnedMessages, msg)
}

// RemovePinnedMessage forgets a pinned message record. It returns false if
// no such record exists, leaving the state unchanged.
func (s *State) RemovePinnedMessage(channelID, timestamp string) bool {
	for i, msg := range s.PinnedMessages {
		if msg.ChannelID == channelID && msg.Timestamp == timestamp {
			s.PinnedMessages = append(s.PinnedMessages[:i], s.PinnedMessages[i+1:]...)
			return true
		}
	}
	return false
}

// PinnedMessagesFor returns the pinned records for one channel.
func (s *State) PinnedMessagesFor(channelID string) []PinnedMessage {
	var out []PinnedMessage
	for _, msg := range s.PinnedMessages {
		if msg.ChannelID == channelID {
			out = append(out, msg)
		}
	}
	return out
}

// LastReportPermalink returns the permalink of the most recently pinned
// report in a channel, or "" when none is recorded.
func (s *State) LastReportPermalink(channelID string) string {
	var latest *PinnedMessage
	for i := range s.PinnedMessages {
		msg := &s.PinnedMessages[i]
		if msg.ChannelID != channelID {
			continue
		}
		if latest == nil || msg.PinnedAt.After(latest.PinnedAt) {
			latest = msg
		}
	}
	if latest == nil {
		return ""
	}
	return latest.Permalink
}

// StateStore reads and writes the flat state file. Only one scheduler
// process runs at a time, so no file locking is needed.
type StateStore struct {
	path   string
	logger *Logger
}

// NewStateStore creates a store for the configured state file path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path, logger: GetGlobalLogger()}
}

// Load reads the state file. A missing file yields an empty state; an
// unreadable or malformed file is logged loudly and also yields an empty
// state so a corrupt file never takes the bot down.
func (ss *StateStore) Load() *State {
	data, err := os.ReadFile(ss.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			ss.logger.Errorf("State file %s unreadable, starting from empty state: %v: %v", ss.path, ErrStateCorrupt, err)
		}
		return NewState()
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		ss.logger.Errorf("State file %s malformed, starting from empty state: %v: %v", ss.path, ErrStateCorrupt, err)
		return NewState()
	}

	if state.Version != stateVersion {
		ss.logger.Warnf("State file %s has version %d, expected %d; starting from empty state", ss.path, state.Version, stateVersion)
		return NewState()
	}

	if state.CardSnapshot == nil {
		state.CardSnapshot = make(map[string]CardSnapshot)
	}
	if state.InProgressSince == nil {
		state.InProgressSince = make(map[string]time.Time)
	}

	return &state
}

// Save writes the state atomically: the JSON is written to a temp file in
// the same directory and renamed over the target, so a crash mid-write
// never leaves a truncated file behind.
func (ss *StateStore) Save(state *State) error {
	state.Version = stateVersion

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	dir := filepath.Dir(ss.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(ss.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp state file: %w", err)
	}

	if err := os.Rename(tmpName, ss.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}

// Dump returns the raw contents of the state file for /debug_file.
func (ss *StateStore) Dump() (string, error) {
	data, err := os.ReadFile(ss.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("state file %s does not exist", ss.path)
		}
		return "", fmt.Errorf("failed to read state file: %w", err)
	}
	return string(data), nil
}
