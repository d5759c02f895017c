package user

import "time"

type User struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"-"`
	Phone    string `json:"phone"`
	AltPhone string `json:"alt_phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Salon    string `json:"salon"`
	IsStaff  bool   `json:"is_staff"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UpdateProfileParams struct {
	Phone    *string `json:"phone"`
	AltPhone *string `json:"alt_phone"`
	Address  *string `json:"address"`
	City     *string `json:"city"`
	Salon    *string `json:"salon"`
}
