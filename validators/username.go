package validators

import "errors"

var (
	ErrUsernameEmpty   = errors.New("no username provided")
	ErrUsernameTooLong = errors.New("username is too long")
	ErrUsernameInvalid = errors.New("username contains invalid characters")
)

// UsernameValidator keeps usernames safe to embed in storage paths, since
// the physical tree is keyed by root/<username>/...
func UsernameValidator(u string) error {
	if u == "" {
		return ErrUsernameEmpty
	}

	if len(u) > 35 {
		return ErrUsernameTooLong
	}

	// "." and ".." are path segments, not names
	if u == "." || u == ".." {
		return ErrUsernameInvalid
	}

	for _, r := range u {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-' || r == '.':
		default:
			return ErrUsernameInvalid
		}
	}

	return nil
}
