package register

import (
	"time"

	"github.com/cafoot/client/accounts"
)

// User facing messages
const (
	MessagePasswordMismatch = "Passwords do not match."
	MessageSuccess          = "Registration successful! Redirecting to your dashboard."
	MessageFailureFallback  = "Registration failed. Please check your details and try again."
)

// DefaultRedirectDelay is how long the success notification is shown before
// moving to the dashboard.
const DefaultRedirectDelay = 2000 * time.Millisecond

// Draft holds the unsubmitted form values
type Draft struct {
	FullName        string `json:"fullName" schema:"fullName"`
	Email           string `json:"email" schema:"email"`
	Password        string `json:"password" schema:"password"`
	ConfirmPassword string `json:"confirmPassword" schema:"confirmPassword"`
}

// PasswordsMatch reports whether the confirmation equals the password
func (d Draft) PasswordsMatch() bool {
	return d.Password == d.ConfirmPassword
}

// Request converts the draft to the Account Service request
func (d Draft) Request() accounts.RegisterRequest {
	return accounts.RegisterRequest{
		FullName: d.FullName,
		Email:    d.Email,
		Password: d.Password,
	}
}

// SubmissionState tracks whether a registration request is in flight
type SubmissionState int

const (
	Idle SubmissionState = iota
	Submitting
	Succeeded
	Failed
)

func (s SubmissionState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
