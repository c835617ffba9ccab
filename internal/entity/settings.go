package entity

import "strings"

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

type Settings struct {
	APIKey   string `json:"api_key"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Masked returns a copy with all but the last four characters of the key
// hidden.
func (s Settings) Masked() Settings {
	if n := len(s.APIKey); n > 4 {
		s.APIKey = strings.Repeat("*", n-4) + s.APIKey[n-4:]
	} else if n > 0 {
		s.APIKey = strings.Repeat("*", n)
	}

	return s
}
