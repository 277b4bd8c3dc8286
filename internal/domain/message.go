package domain

import (
	"errors"
	"regexp"
	"strings"
)

// internalPrefix matches the decoration backends put in front of the real message,
// e.g. "Error: ", "java.lang.RuntimeException: " or "IllegalStateException: ".
var internalPrefix = regexp.MustCompile(`^\s*(?:(?:[A-Za-z_$][\w$]*\.)*[A-Za-z_$][\w$]*(?:Exception|Error)|Error|error)\s*:\s*`)

// CleanMessage strips any internal error-prefix decoration from a backend message.
func CleanMessage(msg string) string {
	for {
		stripped := internalPrefix.ReplaceAllString(msg, "")
		if stripped == msg {
			return strings.TrimSpace(msg)
		}
		msg = stripped
	}
}

// Message turns err into something the storefront can show. Validation and backend
// messages are surfaced; anything else falls back to fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var be *BackendError
	if errors.As(err, &be) && be.Message != "" {
		if msg := CleanMessage(be.Message); msg != "" {
			return msg
		}
	}
	switch {
	case errors.Is(err, ErrAuthRequired), errors.Is(err, ErrEmptyCart), errors.Is(err, ErrCheckoutInProgress):
		return err.Error()
	}
	return fallback
}
