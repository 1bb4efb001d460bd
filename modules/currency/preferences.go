package currency

import "context"

const defaultTargetCurrency = "EUR"

// Preferences are the user settings a conversion depends on.
type Preferences struct {
	TargetCurrency   string
	PreferredAliases PreferredAliasMap
}

// PreferencesSource yields the current preferences; implementations may reload them at any time.
type PreferencesSource interface {
	Preferences() Preferences
}

// StaticPreferences is a PreferencesSource that never changes.
type StaticPreferences Preferences

func (p StaticPreferences) Preferences() Preferences {
	return Preferences(p)
}

// ConversionRecorder keeps the last converted selection so it can be copied later.
type ConversionRecorder interface {
	RecordConversion(ctx context.Context, selection string, results []ConversionResult) error
}
