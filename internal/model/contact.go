package model

import "time"

// Contact is an entry in a user's address book.
//
// OWNERSHIP:
// OwnerID is set once, at creation, to the ID of the authenticated user who
// created the contact. It never changes afterwards. Every read and write of a
// contact is filtered by OwnerID, so a contact belonging to someone else looks
// exactly like a contact that does not exist.
type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Favorite  bool      `json:"favorite"`
	OwnerID   string    `json:"owner"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ContactPatch is a partial update. Nil fields are left unchanged.
type ContactPatch struct {
	Name     *string
	Email    *string
	Phone    *string
	Favorite *bool
}

// Empty reports whether the patch changes nothing.
func (p ContactPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.Favorite == nil
}
