package model

import "time"

// Tournament represents a competitive event that sells entry tickets.
// Capacity is optional: a nil CapacityLimit means the tournament admits
// an unbounded number of tickets.  TicketsSold is the consumed side of
// the capacity counter and only ever moves through the conditional
// increment in the repository layer, never through plain writes.
//
// Fields:
//
//	ID            – primary key identifier.
//	Name          – display name of the tournament.
//	Description   – free-form description.
//	OrganizerID   – user who created the tournament.
//	CategoryCode  – reference into the categories catalog.
//	GameTypeCode  – reference into the game_types catalog.
//	IsPaid        – paid tournaments bypass the free-tournament quota.
//	CapacityLimit – maximum tickets that may be sold (nil = unbounded).
//	TicketsSold   – tickets sold so far; invariant TicketsSold <= CapacityLimit.
//	StartsAt      – when the tournament begins (nullable).
//	EndsAt        – when the tournament ends (nullable).
//	CreatedAt     – creation timestamp.
//	UpdatedAt     – last update timestamp.
type Tournament struct {
	ID            uint64     // tournaments.id
	Name          string     // tournaments.name
	Description   string     // tournaments.description
	OrganizerID   uint64     // tournaments.organizer_id
	CategoryCode  string     // tournaments.category_code
	GameTypeCode  string     // tournaments.game_type_code
	IsPaid        bool       // tournaments.is_paid
	CapacityLimit *uint64    // tournaments.capacity_limit (nullable)
	TicketsSold   uint64     // tournaments.tickets_sold
	StartsAt      *time.Time // tournaments.starts_at (nullable)
	EndsAt        *time.Time // tournaments.ends_at (nullable)
	CreatedAt     time.Time  // tournaments.created_at
	UpdatedAt     time.Time  // tournaments.updated_at
}

// SubAdmin is one entry in a tournament's bounded sub-administrator set.
// Membership is unique per (tournament, user) pair; the set's cardinality
// is capped by configuration and enforced atomically on insert.
type SubAdmin struct {
	TournamentID uint64    // tournament_sub_admins.tournament_id
	UserID       uint64    // tournament_sub_admins.sub_admin_id
	CreatedAt    time.Time // tournament_sub_admins.created_at
}
