// Package beats holds the persisted beat entity, the HTTP client the
// beat machine saves through, and the backend that serves it.
package beats

import (
	"encoding/json"
	"fmt"
	"time"
)

// State says whether a beat has been persisted. The zero value is
// Unsaved; only Saved carries an id.
type State struct {
	id    int64
	saved bool
}

// Unsaved is the state of a beat that has never been stored
var Unsaved = State{}

// Saved is the state of a stored beat
func Saved(id int64) State {
	return State{id: id, saved: true}
}

func (s State) String() string {
	if !s.saved {
		return "unsaved"
	}
	return fmt.Sprintf("saved(%d)", s.id)
}

// Beat is a named pattern. Sound is the serialized grid.
type Beat struct {
	State     State
	Name      string
	Sound     string
	AuthorID  string
	CreatedAt time.Time
}

// New creates an unsaved beat
func New(name, sound string) Beat {
	return Beat{State: Unsaved, Name: name, Sound: sound}
}

// ID returns the id and whether the beat has one
func (b Beat) ID() (int64, bool) {
	return b.State.id, b.State.saved
}

// Saved reports whether the beat has been persisted
func (b Beat) Saved() bool {
	return b.State.saved
}

type beatJSON struct {
	ID        *int64     `json:"id,omitempty"`
	Name      string     `json:"name"`
	Sound     string     `json:"sound"`
	AuthorID  string     `json:"author_id,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

func (b Beat) MarshalJSON() ([]byte, error) {
	out := beatJSON{Name: b.Name, Sound: b.Sound, AuthorID: b.AuthorID}
	if id, ok := b.ID(); ok {
		out.ID = &id
	}
	if !b.CreatedAt.IsZero() {
		out.CreatedAt = &b.CreatedAt
	}
	return json.Marshal(out)
}

func (b *Beat) UnmarshalJSON(data []byte) error {
	var in beatJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*b = Beat{State: Unsaved, Name: in.Name, Sound: in.Sound, AuthorID: in.AuthorID}
	if in.ID != nil {
		b.State = Saved(*in.ID)
	}
	if in.CreatedAt != nil {
		b.CreatedAt = *in.CreatedAt
	}
	return nil
}
