package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MovieID is the canonical numeric movie identifier.
//
// The zero value means "no identifier".
type MovieID int64

// ParseMovieID parses user input such as a CLI argument into a [MovieID].
func ParseMovieID(s string) (MovieID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid movie id %q", s)
	}
	return MovieID(n), nil
}

// Valid reports whether id refers to a movie.
func (id MovieID) Valid() bool { return id > 0 }

func (id MovieID) String() string { return strconv.FormatInt(int64(id), 10) }

// UnmarshalJSON accepts a JSON number, a numeric string or null.
func (id *MovieID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*id = 0
			return nil
		}
		data = []byte(strings.TrimSpace(s))
	}

	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil || f != math.Trunc(f) {
		return fmt.Errorf("invalid movie id %s", string(data))
	}
	*id = MovieID(int64(f))
	return nil
}

// FlexString holds a value the API sends either as a string or as a number.
type FlexString string

// UnmarshalJSON stores strings verbatim and numbers in their literal form.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", string(data))
		}
		*f = FlexString(n.String())
	}
	return nil
}

func (f FlexString) String() string { return string(f) }
