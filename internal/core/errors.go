package core

import (
	"context"
	"errors"
	"strings"
)

// userMessager is implemented by errors that carry text meant for the user,
// such as transport errors holding the server's message.
type userMessager interface {
	UserMessage() string
}

// UserMessage flattens err to the single line shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var um userMessager
	if errors.As(err, &um) {
		if msg := strings.TrimSpace(um.UserMessage()); msg != "" {
			return msg
		}
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "The server took too long to respond. Please try again."
	case errors.Is(err, context.Canceled):
		return "The request was cancelled."
	case errors.Is(err, ErrNotConfirmed):
		return "Action cancelled."
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "Something went wrong. Please try again."
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
