package order

import (
	"bytes"
	"encoding/json"
)

// OptionalID distinguishes an absent delivery_crew_id from an explicit
// null: absent keeps the current assignment, null clears it.
type OptionalID struct {
	Present bool
	Valid   bool
	Value   uint
}

func (o *OptionalID) UnmarshalJSON(b []byte) error {
	o.Present = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Valid = false
		return nil
	}
	if err := json.Unmarshal(b, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}
