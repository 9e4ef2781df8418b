package models

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type UsernameRequest struct {
	Username string `json:"username" validate:"required"`
}
