// internal/domain/tracking/normalize.go
package tracking

import (
	"math"
	"strings"
	"time"

	"github.com/elegant-store/storefront/internal/pkg/pii"
)

// Defaults are the values Normalize fills in for missing fields
type Defaults struct {
	EventName   EventName
	Currency    string
	CountryCode string
}

// DefaultsFor returns relay defaults: Purchase events in currency, with
// phone numbers localized to countryCode
func DefaultsFor(currency, countryCode string) Defaults {
	return Defaults{
		EventName:   Purchase,
		Currency:    currency,
		CountryCode: countryCode,
	}
}

// Normalize turns a loosely filled request into the canonical event.
// It is the one place where defaults and hashing are applied; it performs
// no I/O and is deterministic for a fixed now.
func Normalize(req Request, d Defaults, now time.Time) Event {
	ev := Event{
		EventName:      req.EventName,
		EventTime:      req.EventTime,
		ActionSource:   strings.TrimSpace(req.ActionSource),
		EventID:        req.EventID,
		EventSourceURL: req.EventSourceURL,
		UserData:       HashUserData(req.UserData, d.CountryCode),
	}

	if ev.EventName == "" {
		ev.EventName = d.EventName
	}
	if ev.EventTime <= 0 {
		ev.EventTime = now.Unix()
	}
	if ev.ActionSource == "" {
		ev.ActionSource = ActionSourceWebsite
	}

	if req.CustomData != nil {
		ev.CustomData.Value = req.CustomData.Value
		ev.CustomData.Currency = strings.ToUpper(strings.TrimSpace(req.CustomData.Currency))
		ev.CustomData.Contents = append([]Content(nil), req.CustomData.Contents...)
	}
	if math.IsNaN(float64(ev.CustomData.Value)) || math.IsInf(float64(ev.CustomData.Value), 0) {
		ev.CustomData.Value = 0
	}
	if ev.CustomData.Currency == "" {
		ev.CustomData.Currency = d.Currency
	}
	if ev.CustomData.Contents == nil {
		ev.CustomData.Contents = []Content{}
	}

	return ev
}

// HashUserData hashes the personal fields of u and passes the technical
// identifiers through. Blank fields are omitted.
func HashUserData(u *UserData, countryCode string) HashedUserData {
	if u == nil {
		return HashedUserData{}
	}

	return HashedUserData{
		Email:           pii.HashOptional(u.Email),
		Phone:           pii.HashPhone(u.Phone, countryCode),
		FirstName:       pii.HashOptional(u.FirstName),
		LastName:        pii.HashOptional(u.LastName),
		ClientIPAddress: u.ClientIPAddress,
		ClientUserAgent: u.ClientUserAgent,
		FBP:             u.FBP,
		FBC:             u.FBC,
	}
}
