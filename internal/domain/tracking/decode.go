// internal/domain/tracking/decode.go
package tracking

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
)

var errNotObject = errors.New("tracking request is not a JSON object")

// UnmarshalJSON decodes a relay body one field at a time. A field of the
// wrong type is left empty for Normalize to default while the others are
// kept. Only a body that is not a JSON object is an error.
func (r *Request) UnmarshalJSON(data []byte) error {
	fields, ok := decodeObject(data)
	if !ok {
		return errNotObject
	}

	*r = Request{
		EventName:      EventName(looseString(fields["event_name"])),
		EventTime:      looseUnix(fields["event_time"]),
		ActionSource:   looseString(fields["action_source"]),
		EventID:        looseString(fields["event_id"]),
		EventSourceURL: looseString(fields["event_source_url"]),
		UserData:       decodeUserData(fields["user_data"]),
		CustomData:     decodeCustomData(fields["custom_data"]),
	}
	return nil
}

func decodeUserData(data json.RawMessage) *UserData {
	fields, ok := decodeObject(data)
	if !ok {
		return nil
	}

	return &UserData{
		Phone:           looseString(fields["phone"]),
		Email:           looseString(fields["email"]),
		FirstName:       looseString(fields["first_name"]),
		LastName:        looseString(fields["last_name"]),
		ClientIPAddress: looseString(fields["client_ip_address"]),
		ClientUserAgent: looseString(fields["client_user_agent"]),
		FBP:             looseString(fields["fbp"]),
		FBC:             looseString(fields["fbc"]),
	}
}

func decodeCustomData(data json.RawMessage) *CustomData {
	fields, ok := decodeObject(data)
	if !ok {
		return nil
	}

	return &CustomData{
		Value:    Amount(parseLooseNumber(fields["value"])),
		Currency: looseString(fields["currency"]),
		Contents: decodeContents(fields["contents"]),
	}
}

// decodeContents keeps the well-formed items and drops the rest
func decodeContents(data json.RawMessage) []Content {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}

	contents := make([]Content, 0, len(items))
	for _, item := range items {
		if _, ok := decodeObject(item); !ok {
			continue
		}
		var c Content
		if err := json.Unmarshal(item, &c); err != nil {
			continue
		}
		contents = append(contents, c)
	}
	return contents
}

func decodeObject(data json.RawMessage) (map[string]json.RawMessage, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

// looseString accepts a string or a number. Anything else reads as empty.
func looseString(data json.RawMessage) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ""
	}

	switch c := data[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return ""
		}
		return s
	case c == '-' || (c >= '0' && c <= '9'):
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return ""
		}
		return n.String()
	}
	return ""
}

// looseUnix reads event_time in seconds from a number or a numeric string
func looseUnix(data json.RawMessage) int64 {
	secs := math.Trunc(parseLooseNumber(data))
	if secs <= 0 || secs > math.MaxInt64/2 {
		return 0
	}
	return int64(secs)
}
