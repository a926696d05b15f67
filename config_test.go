package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validConfigYAML = `
slack:
  bot_token: "xoxb-test"
  app_token: "xapp-test"
  channel_id: "C123"
trello:
  api_key: "trello-key"
  token: "trello-token"
  board_ids:
    - "board1"
user_mapping:
  alice: "U111"
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigValid(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validConfigYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Slack.BotToken != "xoxb-test" || cfg.Trello.APIKey != "trello-key" {
		t.Errorf("credentials not loaded: %+v", cfg)
	}
	if len(cfg.Trello.BoardIDs) != 1 || cfg.Trello.BoardIDs[0] != "board1" {
		t.Errorf("board ids not loaded: %v", cfg.Trello.BoardIDs)
	}
	if cfg.UserMapping["alice"] != "U111" {
		t.Errorf("user mapping not loaded: %v", cfg.UserMapping)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validConfigYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Settings.DailyReportTime != "08:00" {
		t.Errorf("daily report time default = %q", cfg.Settings.DailyReportTime)
	}
	if cfg.Settings.WeeklyReportTime != "00:00" {
		t.Errorf("weekly report time default = %q", cfg.Settings.WeeklyReportTime)
	}
	if cfg.Settings.CheckDelay != 180 {
		t.Errorf("check delay default = %d", cfg.Settings.CheckDelay)
	}
	if cfg.Settings.StateFile != "bot_state.json" {
		t.Errorf("state file default = %q", cfg.Settings.StateFile)
	}
	if len(cfg.Lists.DoneStatus) == 0 || len(cfg.Lists.InProgressStatus) == 0 {
		t.Errorf("keyword defaults not applied: %+v", cfg.Lists)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("TRELLO_TOKEN", "env-token")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-env")

	cfg, err := LoadConfig(writeConfig(t, validConfigYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Trello.Token != "env-token" {
		t.Errorf("env override not applied: %q", cfg.Trello.Token)
	}
	if cfg.Slack.BotToken != "xoxb-env" {
		t.Errorf("env override not applied: %q", cfg.Slack.BotToken)
	}
}

func TestLoadConfigMissingCredentialsIsFatal(t *testing.T) {
	contents := strings.Replace(validConfigYAML, `token: "trello-token"`, `token: "YOUR_TRELLO_TOKEN"`, 1)

	_, err := LoadConfig(writeConfig(t, contents))
	if err == nil {
		t.Fatal("expected error for placeholder credentials")
	}
	if !strings.Contains(err.Error(), "trello.token") {
		t.Errorf("error does not name the missing field: %v", err)
	}
}

func TestLoadConfigRequiresBoards(t *testing.T) {
	contents := strings.Replace(validConfigYAML, "  board_ids:\n    - \"board1\"\n", "", 1)

	_, err := LoadConfig(writeConfig(t, contents))
	if err == nil {
		t.Fatal("expected error for missing board ids")
	}
	if !strings.Contains(err.Error(), "board") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfigRejectsBadReportTime(t *testing.T) {
	contents := validConfigYAML + "\nsettings:\n  daily_report_time: \"25:99\"\n"

	_, err := LoadConfig(writeConfig(t, contents))
	if err == nil {
		t.Fatal("expected error for invalid report time")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestResolveMention(t *testing.T) {
	cfg := &Config{UserMapping: map[string]string{"alice": "U111"}}

	if got := cfg.ResolveMention("alice"); got != "<@U111>" {
		t.Errorf("ResolveMention(alice) = %q", got)
	}
	if got := cfg.ResolveMention("stranger"); got != "@stranger" {
		t.Errorf("ResolveMention(stranger) = %q", got)
	}
}

func TestTrelloUsernameForSlackID(t *testing.T) {
	cfg := &Config{UserMapping: map[string]string{"alice": "U111"}}

	if user, ok := cfg.TrelloUsernameForSlackID("U111"); !ok || user != "alice" {
		t.Errorf("TrelloUsernameForSlackID(U111) = %q, %v", user, ok)
	}
	if _, ok := cfg.TrelloUsernameForSlackID("U999"); ok {
		t.Error("unexpected mapping for unknown Slack ID")
	}
}
