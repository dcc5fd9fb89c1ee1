package desk

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Lenient JSON types
//
// Documents on disk were written by form handlers that stored numbers as
// strings ("2500"), rooms as a number, a string, or a list of either.
// These types accept all of those shapes and always encode canonically.

// Number is a float that also decodes from a numeric string. Empty strings and null decode to 0.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	f, err := parseLenientFloat(data)
	if err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// Float returns the value as a float64.
func (n Number) Float() float64 {
	return float64(n)
}

// RoomNumber is a room number that also decodes from a string.
type RoomNumber int

// UnmarshalJSON implements json.Unmarshaler.
func (r *RoomNumber) UnmarshalJSON(data []byte) error {
	f, err := parseLenientFloat(data)
	if err != nil {
		return err
	}
	*r = RoomNumber(int(f))
	return nil
}

// RoomList is one or more room numbers.
// A single room encodes as a bare number.
type RoomList []int

// UnmarshalJSON implements json.Unmarshaler.
func (l *RoomList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return errors.Errorf("invalid room list: %w", err)
		}
		rooms := make(RoomList, 0, len(raw))
		for _, item := range raw {
			f, err := parseLenientFloat(item)
			if err != nil {
				return err
			}
			if f > 0 {
				rooms = append(rooms, int(f))
			}
		}
		*l = rooms
		return nil
	}

	f, err := parseLenientFloat(data)
	if err != nil {
		return err
	}
	if f <= 0 {
		*l = RoomList{}
		return nil
	}
	*l = RoomList{int(f)}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (l RoomList) MarshalJSON() ([]byte, error) {
	if len(l) == 1 {
		return []byte(strconv.Itoa(l[0])), nil
	}
	return json.Marshal([]int(l))
}

// Contains reports whether the list includes the room.
func (l RoomList) Contains(room int) bool {
	for _, r := range l {
		if r == room {
			return true
		}
	}
	return false
}

func parseLenientFloat(data []byte) (float64, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0, nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, errors.Errorf("invalid numeric string: %w", err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, errors.Errorf("invalid number %q: %w", s, err)
		}
		return f, nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return 0, errors.Errorf("invalid number %s: %w", data, err)
	}
	return f, nil
}
