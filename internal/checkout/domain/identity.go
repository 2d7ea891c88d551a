package domain

import (
	"encoding/json"
	"time"
)

// Identity is the public profile of the signed-in user as persisted by the
// identity service. It never carries the credential.
type Identity struct {
	ID        string
	Email     string
	Name      string
	Role      string
	CreatedAt time.Time
}

type identityJSON struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	UserMetadata metadata  `json:"user_metadata"`
	CreatedAt    time.Time `json:"created_at"`
}

type metadata struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

func (i Identity) MarshalJSON() ([]byte, error) {
	return json.Marshal(identityJSON{
		ID:           i.ID,
		Email:        i.Email,
		UserMetadata: metadata{Name: i.Name, Role: i.Role},
		CreatedAt:    i.CreatedAt,
	})
}

func (i *Identity) UnmarshalJSON(b []byte) error {
	var raw identityJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*i = Identity{
		ID:        raw.ID,
		Email:     raw.Email,
		Name:      raw.UserMetadata.Name,
		Role:      raw.UserMetadata.Role,
		CreatedAt: raw.CreatedAt,
	}
	return nil
}

func (i Identity) Valid() bool {
	return i.ID != "" && i.Email != ""
}
