package models

import (
	"time"

	"github.com/google/uuid"
)

// Record statuses follow the verification workflow:
// pending -> verified -> processed.
const (
	StatusPending   = "pending"
	StatusVerified  = "verified"
	StatusProcessed = "processed"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusVerified, StatusProcessed:
		return true
	}
	return false
}

type Record struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	DateOfDeath      time.Time `json:"dateOfDeath"`
	SSN              string    `json:"ssn"`
	Status           string    `json:"status"`
	DocumentVerified bool      `json:"documentVerified"`
	LastUpdated      time.Time `json:"lastUpdated"`
	MedicalNotes     string    `json:"medicalNotes,omitempty"`
	VerifiedBy       string    `json:"verifiedBy,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type RecordStats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Verified  int64 `json:"verified"`
	Processed int64 `json:"processed"`
}

type CreateRecordRequest struct {
	Name             string `json:"name"`
	DateOfDeath      string `json:"dateOfDeath"`
	SSN              string `json:"ssn"`
	Status           string `json:"status,omitempty"`
	DocumentVerified *bool  `json:"documentVerified,omitempty"`
	MedicalNotes     string `json:"medicalNotes,omitempty"`
	VerifiedBy       string `json:"verifiedBy,omitempty"`
}

// UpdateRecordRequest carries a partial merge: nil fields are left untouched.
type UpdateRecordRequest struct {
	Name             *string `json:"name,omitempty"`
	DateOfDeath      *string `json:"dateOfDeath,omitempty"`
	SSN              *string `json:"ssn,omitempty"`
	Status           *string `json:"status,omitempty"`
	DocumentVerified *bool   `json:"documentVerified,omitempty"`
	MedicalNotes     *string `json:"medicalNotes,omitempty"`
	VerifiedBy       *string `json:"verifiedBy,omitempty"`
}

type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SigninRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// RecordEvent is the payload published to the record lifecycle topic.
type RecordEvent struct {
	ID        string                 `json:"id"`
	Action    string                 `json:"action"` // record.created, record.updated, record.deleted
	RecordID  string                 `json:"record_id"`
	Actor     string                 `json:"actor,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}
