package authflow

import (
	"strings"

	"github.com/pkg/errors"

	apperrors "github.com/civilshq/civilshq-go/internal/errors"
)

// OTPLength is the fixed width of verification codes.
const OTPLength = 6

// ParseOTPCode validates a raw verification code: exactly six ASCII digits,
// surrounding whitespace tolerated.
func ParseOTPCode(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	if len(code) != OTPLength {
		return "", errors.Wrapf(apperrors.ErrInvalidOTPCode, "expected %d digits, got %d characters", OTPLength, len(code))
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return "", errors.Wrap(apperrors.ErrInvalidOTPCode, "code must be numeric")
		}
	}
	return code, nil
}

// OTPInput models the six digit slots of the verification form. Digits are
// entered one at a time or pasted as a whole; a paste either fills every
// slot or changes nothing.
type OTPInput struct {
	slots [OTPLength]byte
}

// SetDigit places a single digit into slot pos.
func (in *OTPInput) SetDigit(pos int, digit rune) error {
	if pos < 0 || pos >= OTPLength {
		return errors.Wrapf(apperrors.ErrInvalidOTPCode, "slot %d out of range", pos)
	}
	if digit < '0' || digit > '9' {
		return errors.Wrap(apperrors.ErrInvalidOTPCode, "slot value must be a digit")
	}
	in.slots[pos] = byte(digit)
	return nil
}

// Paste fills all six slots atomically from a pasted string. An invalid
// paste leaves the existing slots untouched.
func (in *OTPInput) Paste(raw string) error {
	code, err := ParseOTPCode(raw)
	if err != nil {
		return err
	}
	copy(in.slots[:], code)
	return nil
}

// Complete reports whether every slot holds a digit.
func (in *OTPInput) Complete() bool {
	for _, b := range in.slots {
		if b == 0 {
			return false
		}
	}
	return true
}

// Code returns the assembled six digit code.
func (in *OTPInput) Code() (string, error) {
	if !in.Complete() {
		return "", errors.Wrap(apperrors.ErrInvalidOTPCode, "code incomplete")
	}
	return string(in.slots[:]), nil
}

// Clear empties all slots.
func (in *OTPInput) Clear() {
	in.slots = [OTPLength]byte{}
}
