// internal/domain/tracking/event.go
package tracking

// EventName identifies a standard commerce event
type EventName string

const (
	PageView         EventName = "PageView"
	ViewContent      EventName = "ViewContent"
	AddToCart        EventName = "AddToCart"
	InitiateCheckout EventName = "InitiateCheckout"
	Purchase         EventName = "Purchase"
)

// ActionSourceWebsite is the only action source this storefront reports
const ActionSourceWebsite = "website"

// UserData carries raw identifiers from the browsing session to the relay
// endpoint. It never leaves for the attribution service unhashed.
type UserData struct {
	Phone           string `json:"phone,omitempty"`
	Email           string `json:"email,omitempty"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	ClientIPAddress string `json:"client_ip_address,omitempty"`
	ClientUserAgent string `json:"client_user_agent,omitempty"`
	FBP             string `json:"fbp,omitempty"`
	FBC             string `json:"fbc,omitempty"`
}

// IsEmpty reports whether no field is set
func (u *UserData) IsEmpty() bool {
	return u == nil || *u == UserData{}
}

// Content is one purchased or added item
type Content struct {
	ID        ID       `json:"id"`
	Quantity  Quantity `json:"quantity"`
	ItemPrice Amount   `json:"item_price"`
}

// CustomData holds the commerce details of an event
type CustomData struct {
	Value    Amount    `json:"value"`
	Currency string    `json:"currency"`
	Contents []Content `json:"contents"`
}

// Request is the body the relay endpoint accepts. Every field is optional;
// Normalize fills the defaults.
type Request struct {
	EventName      EventName   `json:"event_name,omitempty"`
	EventTime      int64       `json:"event_time,omitempty"`
	ActionSource   string      `json:"action_source,omitempty"`
	EventID        string      `json:"event_id,omitempty"`
	EventSourceURL string      `json:"event_source_url,omitempty"`
	UserData       *UserData   `json:"user_data,omitempty"`
	CustomData     *CustomData `json:"custom_data,omitempty"`
}

// HashedUserData is the user_data block sent to the attribution service.
// em, ph, fn and ln only ever hold SHA-256 hex digests.
type HashedUserData struct {
	Email           string `json:"em,omitempty"`
	Phone           string `json:"ph,omitempty"`
	FirstName       string `json:"fn,omitempty"`
	LastName        string `json:"ln,omitempty"`
	ClientIPAddress string `json:"client_ip_address,omitempty"`
	ClientUserAgent string `json:"client_user_agent,omitempty"`
	FBP             string `json:"fbp,omitempty"`
	FBC             string `json:"fbc,omitempty"`
}

// Event is the canonical event forwarded upstream. It is built fresh for
// each dispatch and never modified afterwards.
type Event struct {
	EventName      EventName      `json:"event_name"`
	EventTime      int64          `json:"event_time"`
	ActionSource   string         `json:"action_source"`
	EventID        string         `json:"event_id,omitempty"`
	EventSourceURL string         `json:"event_source_url,omitempty"`
	UserData       HashedUserData `json:"user_data"`
	CustomData     CustomData     `json:"custom_data"`
}

// ClientEvent is what the in-browser channel receives: no user data
type ClientEvent struct {
	Name       EventName
	EventID    string
	SourceURL  string
	CustomData CustomData
}

// Result is the outcome of one relay delivery. Body is the decoded
// response, or nil when no response arrived.
type Result struct {
	OK     bool `json:"ok"`
	Status int  `json:"status"`
	Body   any  `json:"body"`
}

// Notice is the non-blocking feedback raised when a relay delivery fails
type Notice struct {
	EventName EventName
	OK        bool
	Status    int
}
