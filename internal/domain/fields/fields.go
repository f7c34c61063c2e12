package fields

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Text is a scalar the remote API may send either as a JSON string or as a
// JSON number (year, rating). It is always kept in its textual form.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}

func (t Text) Float() (float64, error) {
	return strconv.ParseFloat(string(t), 64)
}
