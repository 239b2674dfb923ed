package model

import "time"

// Store represents a rated venue as stored in the `stores` table.  Each
// store belongs to exactly one owner and an owner holds at most one store.
//
// Fields:
//
//	ID        – uuid primary key.
//	Name      – store name.
//	Email     – unique contact email (unique among stores only).
//	Address   – postal address.
//	OwnerID   – users.id of the owner, unique.
//	CreatedAt – creation timestamp (UTC).
//	Owner     – owner summary, populated by joined reads.
type Store struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	Owner     *UserRef  `json:"owner,omitempty"`
}

// StoreRef is the trimmed store shape embedded in user and rating responses.
type StoreRef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}
