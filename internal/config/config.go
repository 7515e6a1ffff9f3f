package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultBaseURL         = "http://localhost:5000"
	DefaultLandingView     = "dashboard"
	DefaultNavigateDelay   = 1500 * time.Millisecond
	DefaultAutoSubmitDelay = 500 * time.Millisecond
	DefaultSpeechModel     = "whisper-1"

	homeEnv    = "LAWAGENT_HOME"
	baseURLEnv = "LAWAGENT_BASE_URL"
	openAIEnv  = "OPENAI_API_KEY"
)

type Profile struct {
	BaseURL     string `json:"base_url"`
	LandingView string `json:"landing_view,omitempty"`

	NavigateDelayMS    int  `json:"navigate_delay_ms,omitempty"`
	AutoSubmitVoice    bool `json:"auto_submit_voice"`
	AutoSubmitDelayMS  int  `json:"auto_submit_delay_ms,omitempty"`
	RequestTimeoutSecs int  `json:"request_timeout_seconds,omitempty"`

	OpenAIAPIKey   string `json:"openai_api_key,omitempty"`
	OpenAIBaseURL  string `json:"openai_base_url,omitempty"`
	SpeechModel    string `json:"speech_model,omitempty"`
	SpeechLanguage string `json:"speech_language,omitempty"`
	AudioSource    string `json:"audio_source,omitempty"`

	Debug bool `json:"debug,omitempty"`
}

// DefaultProfile is the profile created on first run.
func DefaultProfile() Profile {
	return Profile{
		BaseURL:         DefaultBaseURL,
		LandingView:     DefaultLandingView,
		AutoSubmitVoice: true,
		SpeechModel:     DefaultSpeechModel,
	}
}

type Config struct {
	Profiles       map[string]Profile `json:"profiles"`
	ActiveProfile  string             `json:"active_profile"`
	currentProfile *Profile
	dir            string
}

// LoadConfig reads config.json from the LawAgent directory, creating a
// default one on first run. A .env file in the working directory is loaded
// first so its variables can override the profile.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	dir, err := Dir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFrom(dir)
}

// LoadFrom loads the configuration stored in dir.
func LoadFrom(dir string) (*Config, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(dir, "config.json")
	config, err := loadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	config.dir = dir

	if err := config.setCurrentProfile(); err != nil {
		return nil, fmt.Errorf("failed to set current profile: %w", err)
	}
	return config, nil
}

// Dir returns $LAWAGENT_HOME/.lawagent, defaulting to the user's home.
func Dir() (string, error) {
	base := os.Getenv(homeEnv)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = home
	}
	return filepath.Join(base, ".lawagent"), nil
}

func (c *Config) Dir() string         { return c.dir }
func (c *Config) ConfigPath() string  { return filepath.Join(c.dir, "config.json") }
func (c *Config) SessionPath() string { return filepath.Join(c.dir, "session.json") }
func (c *Config) HistoryPath() string { return filepath.Join(c.dir, "history.db") }
func (c *Config) LogPath() string     { return filepath.Join(c.dir, "lawagent.log") }

// Current returns a copy of the active profile.
func (c *Config) Current() Profile {
	if c.currentProfile == nil {
		return DefaultProfile()
	}
	return *c.currentProfile
}

func (c *Config) IsValid() bool {
	return c.GetBaseURL() != ""
}

func (c *Config) GetBaseURL() string {
	if v := os.Getenv(baseURLEnv); v != "" {
		return strings.TrimSuffix(v, "/")
	}
	if c.currentProfile == nil || c.currentProfile.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimSuffix(c.currentProfile.BaseURL, "/")
}

func (c *Config) GetLandingView() string {
	if c.currentProfile == nil || c.currentProfile.LandingView == "" {
		return DefaultLandingView
	}
	return c.currentProfile.LandingView
}

func (c *Config) GetNavigateDelay() time.Duration {
	if c.currentProfile == nil || c.currentProfile.NavigateDelayMS <= 0 {
		return DefaultNavigateDelay
	}
	return time.Duration(c.currentProfile.NavigateDelayMS) * time.Millisecond
}

func (c *Config) AutoSubmitVoice() bool {
	return c.currentProfile == nil || c.currentProfile.AutoSubmitVoice
}

func (c *Config) GetAutoSubmitDelay() time.Duration {
	if c.currentProfile == nil || c.currentProfile.AutoSubmitDelayMS <= 0 {
		return DefaultAutoSubmitDelay
	}
	return time.Duration(c.currentProfile.AutoSubmitDelayMS) * time.Millisecond
}

// GetRequestTimeout is zero (no deadline) unless configured.
func (c *Config) GetRequestTimeout() time.Duration {
	if c.currentProfile == nil || c.currentProfile.RequestTimeoutSecs <= 0 {
		return 0
	}
	return time.Duration(c.currentProfile.RequestTimeoutSecs) * time.Second
}

func (c *Config) GetOpenAIAPIKey() string {
	if c.currentProfile != nil && c.currentProfile.OpenAIAPIKey != "" {
		return c.currentProfile.OpenAIAPIKey
	}
	return os.Getenv(openAIEnv)
}

func (c *Config) GetOpenAIBaseURL() string {
	if c.currentProfile == nil {
		return ""
	}
	return c.currentProfile.OpenAIBaseURL
}

func (c *Config) GetSpeechModel() string {
	if c.currentProfile == nil || c.currentProfile.SpeechModel == "" {
		return DefaultSpeechModel
	}
	return c.currentProfile.SpeechModel
}

func (c *Config) GetSpeechLanguage() string {
	if c.currentProfile == nil {
		return ""
	}
	return c.currentProfile.SpeechLanguage
}

func (c *Config) GetAudioSource() string {
	if c.currentProfile == nil {
		return ""
	}
	return c.currentProfile.AudioSource
}

func (c *Config) Debug() bool {
	return c.currentProfile != nil && c.currentProfile.Debug
}

// ProfileNames lists profile names in stable order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Use makes name the active profile.
func (c *Config) Use(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile '%s' does not exist", name)
	}
	c.ActiveProfile = name
	return c.setCurrentProfile()
}

// Delete removes a profile, moving the active selection if needed. Deleting
// the last profile recreates the default one.
func (c *Config) Delete(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile '%s' does not exist", name)
	}
	delete(c.Profiles, name)

	if len(c.Profiles) == 0 {
		c.Profiles["default"] = DefaultProfile()
	}
	if c.ActiveProfile == name {
		c.ActiveProfile = c.ProfileNames()[0]
	}
	return c.setCurrentProfile()
}

func loadConfigFile(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func createDefaultConfig(configPath string) (*Config, error) {
	config := &Config{
		Profiles: map[string]Profile{
			"default": DefaultProfile(),
		},
		ActiveProfile: "default",
	}

	if err := saveConfig(config, configPath); err != nil {
		return nil, err
	}
	return config, nil
}

func saveConfig(config *Config, configPath string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0600)
}

func (c *Config) Save() error {
	if c.dir == "" {
		dir, err := Dir()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		c.dir = dir
	}
	return saveConfig(c, c.ConfigPath())
}

func (c *Config) setCurrentProfile() error {
	if len(c.Profiles) == 0 {
		return fmt.Errorf("no profiles defined")
	}

	profile, exists := c.Profiles[c.ActiveProfile]
	if !exists {
		// Fall back to the first profile by name.
		c.ActiveProfile = c.ProfileNames()[0]
		profile = c.Profiles[c.ActiveProfile]
	}

	c.currentProfile = &profile
	return nil
}
