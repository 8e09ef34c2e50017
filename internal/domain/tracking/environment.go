// internal/domain/tracking/environment.go
package tracking

// Cookie names set by the attribution vendor's browser script
const (
	BrowserIDCookie = "_fbp"
	ClickIDCookie   = "_fbc"
)

// Environment exposes what the browsing session knows about itself
type Environment interface {
	UserAgent() string
	Cookie(name string) (string, bool)
	PageURL() string
}

// StaticEnvironment is a fixed Environment
type StaticEnvironment struct {
	Agent   string
	URL     string
	Cookies map[string]string
}

func (e StaticEnvironment) UserAgent() string { return e.Agent }

func (e StaticEnvironment) Cookie(name string) (string, bool) {
	v, ok := e.Cookies[name]
	return v, ok && v != ""
}

func (e StaticEnvironment) PageURL() string { return e.URL }

// collectUserData gathers the identifiers a browser exposes without asking
// the user: its user agent and the vendor's attribution cookies
func collectUserData(env Environment) *UserData {
	if env == nil {
		return nil
	}

	u := &UserData{ClientUserAgent: env.UserAgent()}
	if fbp, ok := env.Cookie(BrowserIDCookie); ok {
		u.FBP = fbp
	}
	if fbc, ok := env.Cookie(ClickIDCookie); ok {
		u.FBC = fbc
	}

	if u.IsEmpty() {
		return nil
	}
	return u
}
