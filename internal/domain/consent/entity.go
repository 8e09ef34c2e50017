// internal/domain/consent/entity.go
package consent

// StorageKey is the durable storage key holding the consent decision
const StorageKey = "cookieConsent"

// Preferences are the cookie categories the user opted into. Necessary is
// always true.
type Preferences struct {
	Necessary   bool `json:"necessary"`
	Analytics   bool `json:"analytics"`
	Marketing   bool `json:"marketing"`
	Preferences bool `json:"preferences"`
}

// DefaultPreferences are shown to a first-time visitor
func DefaultPreferences() Preferences {
	return Preferences{Necessary: true}
}

// AllAccepted opts into every category
func AllAccepted() Preferences {
	return Preferences{Necessary: true, Analytics: true, Marketing: true, Preferences: true}
}

// TrackingAllowed reports whether the client channel may be loaded
func (p Preferences) TrackingAllowed() bool {
	return p.Analytics || p.Marketing
}

// State is either Unset (Decided false) or a recorded decision
type State struct {
	Decided     bool        `json:"decided"`
	Preferences Preferences `json:"preferences"`
}

// Unset is the state before any decision: the prompt must be shown
func Unset() State {
	return State{Preferences: DefaultPreferences()}
}
