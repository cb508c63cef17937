package userValidator

import (
	"github.com/gofiber/fiber/v2"

	"lms/validators"
)

type UserListQuery struct {
	Role string `query:"role" validate:"omitempty,oneof=student instructor admin"`
}

func UserList() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return validators.Query(c, new(UserListQuery), "validatedUserList")
	}
}
