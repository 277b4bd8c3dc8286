package pricing

import (
	"net/mail"
	"strings"

	"github.com/levelup/storefront/internal/domain"
)

const minPasswordLength = 6

// Required fails when value is blank after trimming.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.NewValidationError(field, field+" is required")
	}
	return nil
}

func Email(value string) error {
	if err := Required("email", value); err != nil {
		return err
	}
	trimmed := strings.TrimSpace(value)
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return domain.NewValidationError("email", "email is not valid")
	}
	return nil
}

func Password(value string) error {
	if err := Required("password", value); err != nil {
		return err
	}
	if len(value) < minPasswordLength {
		return domain.NewValidationError("password", "password must have at least 6 characters")
	}
	return nil
}
