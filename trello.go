package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"
)

// Board is a Trello board together with its lists and cards.
type Board struct {
	ID    string
	Name  string
	Lists []List
	Cards []Card
}

// List is a named column on a board. Its name is the sole signal used for
// status classification.
type List struct {
	ID   string
	Name string
}

// Card is a Trello card. InProgressSince is not part of the Trello payload;
// it is filled in from the state store before classification.
type Card struct {
	ID              string
	Name            string
	ShortURL        string
	ListID          string
	Due             *time.Time
	LastActivity    *time.Time
	Members         []string // Trello usernames
	InProgressSince time.Time
}

// ListName resolves a list ID to its name, or "" for unknown lists.
func (b *Board) ListName(listID string) string {
	for _, l := range b.Lists {
		if l.ID == listID {
			return l.Name
		}
	}
	return ""
}

// TrelloClient wraps the read-only parts of the Trello REST API the bot
// uses: boards, lists, cards, members and due dates.
type TrelloClient struct {
	apiKey  string
	token   string
	baseURL string
	client  *http.Client
	logger  *Logger
}

// NewTrelloClient creates a Trello API client authenticated with the
// configured key and token.
func NewTrelloClient(cfg *Config) *TrelloClient {
	return &TrelloClient{
		apiKey:  cfg.Trello.APIKey,
		token:   cfg.Trello.Token,
		baseURL: "https://api.trello.com/1",
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  GetGlobalLogger(),
	}
}

// Wire formats returned by the Trello API.
type trelloBoard struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type trelloList struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type trelloMember struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type trelloCard struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	ShortURL         string         `json:"shortUrl"`
	IDList           string         `json:"idList"`
	Due              string         `json:"due"`
	DateLastActivity string         `json:"dateLastActivity"`
	Members          []trelloMember `json:"members"`
}

// get performs an authenticated GET against the Trello API and decodes the
// JSON payload into out. Non-2xx responses and malformed payloads are
// wrapped in ErrUpstream.
func (t *TrelloClient) get(endpoint string, params url.Values, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("key", t.apiKey)
	params.Set("token", t.token)

	reqURL := fmt.Sprintf("%s/%s?%s", t.baseURL, endpoint, params.Encode())

	resp, err := t.client.Get(reqURL)
	if err != nil {
		return fmt.Errorf("%w: request to %s failed: %v", ErrUpstream, endpoint, err)
	}
	defer CloseWithErrorLog(resp.Body, "trello response body")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned status %d: %s", ErrUpstream, endpoint, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: malformed response from %s: %v", ErrUpstream, endpoint, err)
	}

	return nil
}

// VerifyAuth checks that the configured key and token work, returning the
// authenticated Trello username.
func (t *TrelloClient) VerifyAuth() (string, error) {
	var me struct {
		Username string `json:"username"`
	}
	if err := t.get("members/me", nil, &me); err != nil {
		return "", err
	}
	return me.Username, nil
}

// fetchBoard loads one board with its lists and cards. includeArchived also
// returns archived cards, which the weekly report needs to count cards that
// were completed and filed away during the week.
func (t *TrelloClient) fetchBoard(boardID string, includeArchived bool) (*Board, error) {
	var info trelloBoard
	if err := t.get("boards/"+boardID, nil, &info); err != nil {
		return nil, err
	}

	var lists []trelloList
	if err := t.get("boards/"+boardID+"/lists", nil, &lists); err != nil {
		return nil, err
	}

	params := url.Values{"members": {"true"}, "due": {"true"}}
	if includeArchived {
		params.Set("filter", "all")
	}
	var cards []trelloCard
	if err := t.get("boards/"+boardID+"/cards", params, &cards); err != nil {
		return nil, err
	}

	board := &Board{ID: info.ID, Name: info.Name}
	if board.ID == "" {
		board.ID = boardID
	}
	for _, l := range lists {
		board.Lists = append(board.Lists, List{ID: l.ID, Name: l.Name})
	}
	for _, c := range cards {
		board.Cards = append(board.Cards, convertCard(c))
	}

	return board, nil
}

func convertCard(c trelloCard) Card {
	card := Card{
		ID:       c.ID,
		Name:     c.Name,
		ShortURL: c.ShortURL,
		ListID:   c.IDList,
	}
	if due, err := time.Parse(time.RFC3339, c.Due); err == nil && c.Due != "" {
		card.Due = &due
	}
	if la, err := time.Parse(time.RFC3339, c.DateLastActivity); err == nil && c.DateLastActivity != "" {
		card.LastActivity = &la
	}
	for _, m := range c.Members {
		card.Members = append(card.Members, m.Username)
	}
	return card
}

// FetchBoards loads all configured boards concurrently. One failing board
// never aborts the others: its error is returned in the failures map so the
// caller can log it and render the healthy boards. Boards come back in a
// stable order (by name, then ID).
func (t *TrelloClient) FetchBoards(boardIDs []string, includeArchived bool) ([]*Board, map[string]error) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		boards   []*Board
		failures = make(map[string]error)
	)

	for _, boardID := range boardIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			board, err := t.fetchBoard(id, includeArchived)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				t.logger.Errorf("Failed to fetch board %s: %v", id, err)
				failures[id] = err
				return
			}
			boards = append(boards, board)
		}(boardID)
	}
	wg.Wait()

	sort.Slice(boards, func(i, j int) bool {
		if boards[i].Name != boards[j].Name {
			return boards[i].Name < boards[j].Name
		}
		return boards[i].ID < boards[j].ID
	})

	return boards, failures
}
