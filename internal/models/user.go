package models

// User is the authenticated principal. Email is optional.
type User struct {
	ID    string `json:"id" validate:"required"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

func (u User) Validate() error {
	return validateStruct(u)
}
