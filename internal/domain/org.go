package domain

import "time"

// RootLevel is the level of the top-level authority. Only organizations at this
// level manage venues.
const RootLevel = 0

// FinalApproverLevel is the level whose approval completes an approval chain.
const FinalApproverLevel = 1

type Organization struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	ParentID       *string   `json:"parent_id,omitempty"`
	Level          int       `json:"level"`
	IsVenueManager bool      `json:"is_venue_manager"`
	CreatedOn      time.Time `json:"created_on"`
	UpdatedOn      time.Time `json:"updated_on"`
}

// PlaceUnder attaches the organization to parent (nil for a root) and derives
// Level and IsVenueManager from it. It is the only place those fields are set.
func (o *Organization) PlaceUnder(parent *Organization) {
	if parent == nil {
		o.ParentID = nil
		o.Level = RootLevel
	} else {
		pid := parent.ID
		o.ParentID = &pid
		o.Level = parent.Level + 1
	}
	o.IsVenueManager = o.Level == RootLevel
}

func (o *Organization) IsRoot() bool {
	return o.Level == RootLevel
}

// CanOverride reports whether the organization may review any event, even
// without a seat in its approval chain.
func (o *Organization) CanOverride() bool {
	return o.Level <= FinalApproverLevel
}
