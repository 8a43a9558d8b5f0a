// file: internal/models/settings.go
// version: 1.0.0
// guid: c05d8f27-3b1e-4e96-a4d0-7f82b61e9a45

package models

import "time"

// SettingsID is the fixed key of the AppSettings singleton.
const SettingsID = "appSettings"

// Theme values
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

const (
	DefaultWPM       = 300
	DefaultInputType = "TEXT"
)

// AppSettings is the per-installation reader configuration.
type AppSettings struct {
	ID        string `json:"id"`
	WPM       int    `json:"wpm"`
	Theme     string `json:"theme"`
	InputType string `json:"inputType"`
}

// DefaultSettings returns the settings used when nothing has been stored.
func DefaultSettings() AppSettings {
	return AppSettings{
		ID:        SettingsID,
		WPM:       DefaultWPM,
		Theme:     ThemeLight,
		InputType: DefaultInputType,
	}
}

// SettingsPatch is a partial update; nil fields keep their current value.
type SettingsPatch struct {
	WPM       *int
	Theme     *string
	InputType *string
}

// IsEmpty reports whether the patch would change nothing.
func (p SettingsPatch) IsEmpty() bool {
	return p.WPM == nil && p.Theme == nil && p.InputType == nil
}

// Apply merges the patch into s and returns the result.
func (p SettingsPatch) Apply(s AppSettings) AppSettings {
	s.ID = SettingsID
	if p.WPM != nil {
		s.WPM = *p.WPM
	}
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.InputType != nil {
		s.InputType = *p.InputType
	}
	return s
}

// BookProgress is the denormalized reading position of one book.
type BookProgress struct {
	ID               string    `json:"id"`
	CurrentWordIndex int       `json:"currentWordIndex"`
	CurrentChapter   int       `json:"currentChapter"`
	LastReadDate     time.Time `json:"lastReadDate"`
}
