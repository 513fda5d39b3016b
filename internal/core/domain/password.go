package domain

// MinPasswordLength is the shortest password the backend accepts.
const MinPasswordLength = 8

const (
	MsgCurrentPasswordRequired = "Current password is required"
	MsgPasswordMismatch        = "New passwords do not match"
	MsgPasswordTooShort        = "Password must be at least 8 characters long"
	MsgPasswordUnchanged       = "New password must be different from the current password"
	MsgNewPasswordRequired     = "New password is required"
)

// PasswordChangeRequest carries the forced-change form values.
type PasswordChangeRequest struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// Validate applies the rotation policy in order; the first failing rule wins.
func (r PasswordChangeRequest) Validate() error {
	if r.CurrentPassword == "" {
		return &ValidationError{Field: "current_password", Message: MsgCurrentPasswordRequired}
	}
	if r.NewPassword != r.ConfirmPassword {
		return &ValidationError{Field: "confirm_password", Message: MsgPasswordMismatch}
	}
	if len(r.NewPassword) < MinPasswordLength {
		return &ValidationError{Field: "new_password", Message: MsgPasswordTooShort}
	}
	if r.NewPassword == r.CurrentPassword {
		return &ValidationError{Field: "new_password", Message: MsgPasswordUnchanged}
	}
	return nil
}

// PasswordResetConfirmation carries the reset-link form values.
type PasswordResetConfirmation struct {
	UID             string
	Token           string
	NewPassword     string
	ConfirmPassword string
}

// Validate applies the subset of the rotation policy that does not need the old password.
func (r PasswordResetConfirmation) Validate() error {
	if r.NewPassword == "" {
		return &ValidationError{Field: "new_password", Message: MsgNewPasswordRequired}
	}
	if r.NewPassword != r.ConfirmPassword {
		return &ValidationError{Field: "confirm_password", Message: MsgPasswordMismatch}
	}
	if len(r.NewPassword) < MinPasswordLength {
		return &ValidationError{Field: "new_password", Message: MsgPasswordTooShort}
	}
	return nil
}
