package handler

import (
	"errors"

	"cloakswap/internal/storage"
)

var errUnavailable = storage.Unavailable("get", errors.New("connection refused"))
