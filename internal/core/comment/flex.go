package comment

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Flex is a string field that the server may encode as a JSON string, number
// or boolean. Null and missing both decode to the empty string.
type Flex string

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flex) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = Flex(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = Flex(n.String())
		return nil
	}

	var v bool
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = Flex(strconv.FormatBool(v))
	return nil
}

// String returns the raw value.
func (f Flex) String() string { return string(f) }

// Set reports whether a value was present.
func (f Flex) Set() bool { return f != "" }

// Int parses the value as an integer.
func (f Flex) Int() (int, bool) {
	if f == "" {
		return 0, false
	}
	n, err := strconv.Atoi(string(f))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Bool reports whether the value is literally "true".
func (f Flex) Bool() bool { return f == "true" }
