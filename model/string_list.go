package model

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/pkg/errors"
)

// StringList is a string slice stored as a JSON text column. Used for ticker
// alias/keyword lists and matched terms, which are always read and written as
// a whole.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	bytes, err := json.Marshal(l)
	if err != nil {
		return nil, errors.Wrap(err, "fail to marshal string list")
	}
	return string(bytes), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.Errorf("unsupported string list column type: %T", value)
	}
	return json.Unmarshal(bytes, l)
}
