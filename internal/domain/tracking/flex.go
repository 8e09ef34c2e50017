// internal/domain/tracking/flex.go
package tracking

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Amount is a monetary number that also accepts numeric strings on input.
// Anything non-numeric decodes to 0 instead of failing the whole body.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount(parseLooseNumber(data))
	return nil
}

// Quantity is an item count that accepts numbers or numeric strings
type Quantity int

func (q *Quantity) UnmarshalJSON(data []byte) error {
	*q = Quantity(math.Trunc(parseLooseNumber(data)))
	return nil
}

// ID is a content identifier that accepts a string or a number
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	*id = ID(data)
	return nil
}

func parseLooseNumber(data []byte) float64 {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return 0
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0
		}
		raw = strings.TrimSpace(s)
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
