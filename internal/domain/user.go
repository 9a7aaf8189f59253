package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserState string

const (
	UserStateActive    UserState = "active"
	UserStateSuspended UserState = "suspended"
	UserStateWithdrawn UserState = "withdrawn"
	UserStateBanned    UserState = "banned"
)

type ConsentType string

const (
	ConsentAgree    ConsentType = "agree"
	ConsentDisagree ConsentType = "disagree"
)

// User is the local account a social identity resolves to. Fields are treated
// as immutable; state changes go through the With* helpers below and are
// persisted as a full-row replace.
type User struct {
	ID                 uuid.UUID   `json:"id" db:"id"`
	Email              string      `json:"email" db:"email"`
	Nickname           string      `json:"nickname" db:"nickname"`
	State              UserState   `json:"state" db:"state"`
	Marketing          ConsentType `json:"marketing" db:"marketing"`
	TermsOfService     ConsentType `json:"terms_of_service" db:"terms_of_service"`
	PersonalInfoPolicy ConsentType `json:"personal_info_policy" db:"personal_info_policy"`
	WithdrawalReason   *string     `json:"-" db:"withdrawal_reason"`
	LastLoginAt        *time.Time  `json:"last_login_at" db:"last_login_at"`
	WithdrawnAt        *time.Time  `json:"-" db:"withdrawn_at"`
	CreatedAt          time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at" db:"updated_at"`
}

// Withdrawn returns a copy of the user marked as withdrawn at the given time.
func (u User) Withdrawn(at time.Time) User {
	u.State = UserStateWithdrawn
	u.WithdrawnAt = &at
	u.UpdatedAt = at
	return u
}

// WithMarketing returns a copy of the user with the marketing consent changed.
func (u User) WithMarketing(consent ConsentType, at time.Time) User {
	u.Marketing = consent
	u.UpdatedAt = at
	return u
}

// WithLastLogin returns a copy of the user with the last login time stamped.
func (u User) WithLastLogin(at time.Time) User {
	u.LastLoginAt = &at
	u.UpdatedAt = at
	return u
}
