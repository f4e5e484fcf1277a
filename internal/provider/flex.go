package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexString decodes a JSON string, number, boolean or null into a string.
// Null and absent values decode to "".
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}

	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	if b, ok := boolLiteral(data); ok {
		*s = FlexString(strconv.FormatBool(b))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flex string: unsupported value %s", data)
	}
	*s = FlexString(n.String())
	return nil
}

// String returns the underlying value.
func (s FlexString) String() string { return string(s) }

// FlexInt decodes a JSON number, numeric string, boolean or null into an
// int. Null, absent, false and non-numeric strings decode to 0, true to 1.
type FlexInt int

func (i *FlexInt) UnmarshalJSON(data []byte) error {
	if b, ok := boolLiteral(bytes.TrimSpace(data)); ok {
		*i = 0
		if b {
			*i = 1
		}
		return nil
	}

	var s FlexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	if s == "" {
		*i = 0
		return nil
	}
	n, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		*i = 0
		return nil
	}
	*i = FlexInt(int(n))
	return nil
}

// FlexStrings decodes a JSON array of strings. Numeric elements are kept in
// their decimal form; any other element is dropped. A non-array value
// decodes to nil.
type FlexStrings []string

func (l *FlexStrings) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*l = nil
		return nil
	}

	out := make([]string, 0, len(raw))
	for _, el := range raw {
		el = bytes.TrimSpace(el)
		if len(el) == 0 || (el[0] != '"' && el[0] != '-' && (el[0] < '0' || el[0] > '9')) {
			continue
		}
		var s FlexString
		if err := s.UnmarshalJSON(el); err != nil {
			continue
		}
		out = append(out, string(s))
	}
	*l = out
	return nil
}

func boolLiteral(data []byte) (value, ok bool) {
	switch string(data) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}
