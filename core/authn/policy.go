package authn

// Username and password policies. Input validation belongs to the HTTP
// layer, but the service re-asserts these preconditions defensively.
const (
	MinUsernameLength = 1
	MaxUsernameLength = 40
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

// ValidateUsername checks the username policy: 1-40 characters, ASCII
// letters, digits and underscore only.
func ValidateUsername(username string) error {
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return ErrUsernameInvalid
	}
	for i := 0; i < len(username); i++ {
		c := username[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			return ErrUsernameInvalid
		}
	}
	return nil
}

// ValidatePassword checks the password length policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return ErrPasswordInvalid
	}
	return nil
}
