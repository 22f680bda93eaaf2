package entity

import "time"

// Card is the payload an external ID-card renderer consumes for an approved
// member. Rendering itself happens outside this service.
type Card struct {
	ClubName     string    `json:"club_name"`
	Name         string    `json:"name"`
	MembershipID string    `json:"membership_id"`
	Phone        string    `json:"phone"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	ValidTill    time.Time `json:"valid_till"`
}
