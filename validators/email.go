// Package validators contains validators found throughout the application
// that have been abstracted away from the main code
package validators

import (
	"errors"
	"net/mail"
	"strings"
)

var (
	ErrEmailEmpty   = errors.New("no email address provided")
	ErrEmailInvalid = errors.New("email address is not valid")
)

// EmailValidator accepts a bare address only. Addresses with a display
// name ("Yoda <yoda@example.com>") parse fine but would end up stored
// verbatim in the unique email column, so they are rejected too.
func EmailValidator(e string) error {
	if e == "" {
		return ErrEmailEmpty
	}

	addr, err := mail.ParseAddress(e)
	if err != nil {
		return ErrEmailInvalid
	}

	if addr.Name != "" || !strings.EqualFold(addr.Address, e) {
		return ErrEmailInvalid
	}

	return nil
}
