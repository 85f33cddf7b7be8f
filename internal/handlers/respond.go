package handlers

import (
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/splitrail/splitrail-web/pkg/dto"
)

func respond[T any](c *drift.Context, status int, data T) {
	_ = c.JSON(status, dto.OK(data))
}

func respondEmpty(c *drift.Context) {
	_ = c.JSON(200, dto.Empty())
}

// fail writes the error envelope and stops the chain.
func fail(c *drift.Context, status int, message string) {
	_ = c.JSON(status, dto.Fail(message))
	c.Abort()
}
