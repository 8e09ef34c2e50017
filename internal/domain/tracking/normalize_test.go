package tracking

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elegant-store/storefront/internal/pkg/pii"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestNormalizeEmptyRequest(t *testing.T) {
	ev := Normalize(Request{}, DefaultsFor("AED", pii.DefaultCountryCode), fixedNow)

	assert.Equal(t, Purchase, ev.EventName)
	assert.Equal(t, fixedNow.Unix(), ev.EventTime)
	assert.Equal(t, ActionSourceWebsite, ev.ActionSource)
	assert.Equal(t, HashedUserData{}, ev.UserData)
	assert.Equal(t, Amount(0), ev.CustomData.Value)
	assert.Equal(t, "AED", ev.CustomData.Currency)
	require.NotNil(t, ev.CustomData.Contents)
	assert.Empty(t, ev.CustomData.Contents)

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"contents":[]`)
	assert.Contains(t, string(data), `"user_data":{}`)
}

func TestNormalizeKeepsSuppliedFields(t *testing.T) {
	req := Request{
		EventName:      AddToCart,
		EventTime:      1700000000,
		ActionSource:   "website",
		EventID:        "evt-1",
		EventSourceURL: "http://localhost:3000/",
		CustomData: &CustomData{
			Value:    120,
			Currency: "usd",
			Contents: []Content{{ID: "3", Quantity: 2, ItemPrice: 60}},
		},
	}

	ev := Normalize(req, DefaultsFor("AED", pii.DefaultCountryCode), fixedNow)

	assert.Equal(t, AddToCart, ev.EventName)
	assert.Equal(t, int64(1700000000), ev.EventTime)
	assert.Equal(t, "evt-1", ev.EventID)
	assert.Equal(t, "http://localhost:3000/", ev.EventSourceURL)
	assert.Equal(t, Amount(120), ev.CustomData.Value)
	assert.Equal(t, "USD", ev.CustomData.Currency)
	assert.Equal(t, []Content{{ID: "3", Quantity: 2, ItemPrice: 60}}, ev.CustomData.Contents)
}

func TestNormalizeHashesPersonalData(t *testing.T) {
	req := Request{UserData: &UserData{
		Phone:           "050 123 4567",
		Email:           "  Sara@Example.com ",
		FirstName:       "Sara",
		ClientIPAddress: "10.0.0.1",
		ClientUserAgent: "Mozilla/5.0",
		FBP:             "fb.1.1700000000000.42",
		FBC:             "fb.1.1700000000000.abc",
	}}

	ev := Normalize(req, DefaultsFor("AED", pii.DefaultCountryCode), fixedNow)

	assert.Equal(t, pii.Hash("971501234567"), ev.UserData.Phone)
	assert.Equal(t, pii.Hash("sara@example.com"), ev.UserData.Email)
	assert.Equal(t, pii.Hash("sara"), ev.UserData.FirstName)
	assert.Empty(t, ev.UserData.LastName)
	assert.Equal(t, "10.0.0.1", ev.UserData.ClientIPAddress)
	assert.Equal(t, "Mozilla/5.0", ev.UserData.ClientUserAgent)
	assert.Equal(t, "fb.1.1700000000000.42", ev.UserData.FBP)
	assert.Equal(t, "fb.1.1700000000000.abc", ev.UserData.FBC)

	data, err := json.Marshal(ev.UserData)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Sara")
	assert.NotContains(t, string(data), "0501234567")
	assert.NotContains(t, string(data), `"ln"`)
}

func TestRequestDecodesLooseValues(t *testing.T) {
	body := `{
		"custom_data": {
			"value": "250.50",
			"contents": [
				{"id": 7, "quantity": "2", "item_price": "125.25"},
				{"id": "8", "quantity": 1.9, "item_price": "free"}
			]
		}
	}`

	var req Request
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	require.NotNil(t, req.CustomData)

	assert.Equal(t, Amount(250.5), req.CustomData.Value)
	assert.Equal(t, []Content{
		{ID: "7", Quantity: 2, ItemPrice: 125.25},
		{ID: "8", Quantity: 1, ItemPrice: 0},
	}, req.CustomData.Contents)
}

func TestNonNumericValueBecomesZero(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"custom_data":{"value":"abc","currency":"aed"}}`), &req))

	ev := Normalize(req, DefaultsFor("AED", pii.DefaultCountryCode), fixedNow)
	assert.Equal(t, Amount(0), ev.CustomData.Value)
	assert.Equal(t, "AED", ev.CustomData.Currency)
}

func TestMistypedFieldsFallBackOneByOne(t *testing.T) {
	body := `{"event_name":"AddToCart","event_time":"1700000000","event_id":"abc",` +
		`"user_data":{"email":"a@b.com","phone":true},"custom_data":{"value":"12.5","currency":"usd","contents":{}}}`

	var req Request
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	ev := Normalize(req, DefaultsFor("AED", pii.DefaultCountryCode), fixedNow)
	assert.Equal(t, AddToCart, ev.EventName)
	assert.Equal(t, int64(1700000000), ev.EventTime)
	assert.Equal(t, "abc", ev.EventID)
	assert.Equal(t, pii.Hash("a@b.com"), ev.UserData.Email)
	assert.Empty(t, ev.UserData.Phone)
	assert.Equal(t, Amount(12.5), ev.CustomData.Value)
	assert.Equal(t, "USD", ev.CustomData.Currency)
	assert.Equal(t, []Content{}, ev.CustomData.Contents)
}

func TestRequestMustBeAnObject(t *testing.T) {
	for _, body := range []string{`[1,2]`, `"Purchase"`, `42`} {
		var req Request
		assert.Error(t, json.Unmarshal([]byte(body), &req), body)
	}

	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"event_time":-5,"user_data":"x","custom_data":null}`), &req))
	assert.Equal(t, Request{}, req)
}
