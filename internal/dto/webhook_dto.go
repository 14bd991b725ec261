package dto

// IdentityWebhook is a user lifecycle event from the auth provider.
type IdentityWebhook struct {
	Type string       `json:"type" validate:"required,oneof=user.created user.updated user.deleted"`
	Data IdentityUser `json:"data"`
}

type IdentityUser struct {
	ID       string `json:"id" validate:"required"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Username string `json:"username"`
}
