// Package greeting provides the hello tool.
package greeting

import (
	"context"

	"github.com/HerbHall/toolshed/internal/toolserver"
)

// Message is the text the hello tool returns.
const Message = "Hello, world!"

// Hello returns a friendly greeting.
func Hello() string {
	return Message
}

// Tool declares hello for registration on a toolserver.Server.
func Tool() toolserver.Tool {
	return toolserver.Tool{
		Name:        "hello",
		Description: "A simple tool that returns a greeting.",
		Handler: func(context.Context, toolserver.Args) (string, error) {
			return Hello(), nil
		},
	}
}
