package dto

type RegisterDTO struct {
	Fullname string `json:"fullname" form:"fullname" validate:"required"`
	Email    string `json:"email"    form:"email"    validate:"required,email"`
	Username string `json:"username" form:"username" validate:"required,handle"`
	Password string `json:"password" form:"password" validate:"required"`

	// Пути к временным файлам, сохранённым транспортом.
	AvatarPath     string `json:"-" form:"-"`
	CoverImagePath string `json:"-" form:"-"`
}

// LoginDTO: достаточно username ИЛИ email.
type LoginDTO struct {
	Username string `json:"username"`
	Email    string `json:"email"    validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordDTO struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type UpdateAccountDTO struct {
	Fullname string `json:"fullname" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
}
