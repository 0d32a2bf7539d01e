package echoapi

import (
	"github.com/aranzadi/pictotea/core"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r LoginRequest) Validate() error { return core.Validate.Struct(r) }

type LoginResponse struct {
	Token string `json:"token"`
}

type ReassignRequest struct {
	Restore bool `json:"restore"`
}
