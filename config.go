package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the bot needs: Slack credentials and target
// channel, Trello credentials and boards, the Trello-to-Slack user mapping
// and scheduling knobs. Loaded once at startup; read-only afterwards.
type Config struct {
	Slack struct {
		BotToken  string `yaml:"bot_token"`
		AppToken  string `yaml:"app_token"`
		ChannelID string `yaml:"channel_id"`
	} `yaml:"slack"`

	Trello struct {
		APIKey   string   `yaml:"api_key"`
		Token    string   `yaml:"token"`
		BoardIDs []string `yaml:"board_ids"`
	} `yaml:"trello"`

	// UserMapping maps Trello usernames to Slack user IDs for @mentions.
	UserMapping map[string]string `yaml:"user_mapping"`

	Lists struct {
		DoneStatus       []string `yaml:"done_status"`
		InProgressStatus []string `yaml:"in_progress_status"`
	} `yaml:"lists"`

	Settings struct {
		CheckDelay       int    `yaml:"check_delay"`        // seconds between change polls
		DailyReportTime  string `yaml:"daily_report_time"`  // HH:MM local, Mon-Sat
		WeeklyReportTime string `yaml:"weekly_report_time"` // HH:MM local, Monday
		StateFile        string `yaml:"state_file"`
	} `yaml:"settings"`
}

// LoadConfig reads the YAML configuration file and applies environment
// variable overrides for the credential fields.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnvOverrides lets environment variables (typically from a .env file)
// take precedence over credentials stored in the config file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SLACK_BOT_TOKEN"); v != "" {
		c.Slack.BotToken = v
	}
	if v := os.Getenv("SLACK_APP_TOKEN"); v != "" {
		c.Slack.AppToken = v
	}
	if v := os.Getenv("SLACK_CHANNEL_ID"); v != "" {
		c.Slack.ChannelID = v
	}
	if v := os.Getenv("TRELLO_API_KEY"); v != "" {
		c.Trello.APIKey = v
	}
	if v := os.Getenv("TRELLO_TOKEN"); v != "" {
		c.Trello.Token = v
	}
}

func (c *Config) applyDefaults() {
	if len(c.Lists.DoneStatus) == 0 {
		c.Lists.DoneStatus = doneListKeywords
	}
	if len(c.Lists.InProgressStatus) == 0 {
		c.Lists.InProgressStatus = inProgressListKeywords
	}
	if c.Settings.CheckDelay <= 0 {
		c.Settings.CheckDelay = 180
	}
	if c.Settings.DailyReportTime == "" {
		c.Settings.DailyReportTime = "08:00"
	}
	if c.Settings.WeeklyReportTime == "" {
		c.Settings.WeeklyReportTime = "00:00"
	}
	if c.Settings.StateFile == "" {
		c.Settings.StateFile = "bot_state.json"
	}
	if c.UserMapping == nil {
		c.UserMapping = map[string]string{}
	}
}

// Validate reports missing or placeholder credentials. The bot must not
// start with an invalid configuration.
func (c *Config) Validate() error {
	required := map[string]string{
		"slack.bot_token":  c.Slack.BotToken,
		"slack.app_token":  c.Slack.AppToken,
		"slack.channel_id": c.Slack.ChannelID,
		"trello.api_key":   c.Trello.APIKey,
		"trello.token":     c.Trello.Token,
	}

	var missing []string
	for name, value := range required {
		if value == "" || strings.HasPrefix(value, "YOUR_") {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing or invalid configuration values: %s", strings.Join(missing, ", "))
	}

	if len(c.Trello.BoardIDs) == 0 {
		return fmt.Errorf("no board IDs configured: add at least one board to trello.board_ids")
	}

	if _, _, err := parseClockTime(c.Settings.DailyReportTime); err != nil {
		return fmt.Errorf("invalid settings.daily_report_time: %w", err)
	}
	if _, _, err := parseClockTime(c.Settings.WeeklyReportTime); err != nil {
		return fmt.Errorf("invalid settings.weekly_report_time: %w", err)
	}

	return nil
}

// ResolveMention returns the Slack mention for a Trello username, falling
// back to a plain @username when no mapping is configured.
func (c *Config) ResolveMention(trelloUsername string) string {
	if id, ok := c.UserMapping[trelloUsername]; ok && id != "" {
		return fmt.Sprintf("<@%s>", id)
	}
	return "@" + trelloUsername
}

// TrelloUsernameForSlackID does the reverse lookup, used by /mt to find the
// Trello identity of the Slack user who ran the command.
func (c *Config) TrelloUsernameForSlackID(slackUserID string) (string, bool) {
	for trelloUser, slackID := range c.UserMapping {
		if slackID == slackUserID {
			return trelloUser, true
		}
	}
	return "", false
}

// parseClockTime parses an "HH:MM" string into hour and minute.
func parseClockTime(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}
