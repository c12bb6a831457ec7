package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// StringArray stores a list of strings in a single text column. Values are
// written as a JSON array; reads also accept the PostgreSQL array literal so a
// column created as TEXT[] keeps working.
type StringArray []string

// Scan implements sql.Scanner.
func (a *StringArray) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("StringArray: unsupported scan type %T", value)
	}

	switch {
	case strings.HasPrefix(raw, "["):
		return json.Unmarshal([]byte(raw), a)
	case strings.HasPrefix(raw, "{") && strings.HasSuffix(raw, "}"):
		*a = splitArrayLiteral(raw[1 : len(raw)-1])
	default:
		*a = StringArray{raw}
	}
	return nil
}

// splitArrayLiteral splits the body of a {a,"b,c"} literal.
func splitArrayLiteral(body string) StringArray {
	items := StringArray{}
	if body == "" {
		return items
	}

	var cur strings.Builder
	quoted, escaped := false, false
	for _, r := range body {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			quoted = !quoted
		case r == ',' && !quoted:
			items = append(items, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(items, cur.String())
}

// Value implements driver.Valuer.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	data, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (StringArray) GormDataType() string {
	return "text"
}
