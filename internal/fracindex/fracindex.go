// Package fracindex generates string order keys that can always be placed
// between two existing keys without renumbering their neighbours.
//
// A key is an "integer part" followed by an optional fraction. The integer
// part starts with a head character whose value encodes its length: 'a'..'z'
// carry 2..27 characters and count upwards, 'A'..'Z' carry 27..2 characters
// and count downwards. Fractions are base62 digits with no trailing '0'.
// Plain byte-wise string comparison orders keys correctly.
package fracindex

import (
	"errors"
	"fmt"
	"strings"
)

// Key is an order key. The empty Key stands for "no bound".
type Key string

const (
	digits = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// First is the key handed out when no neighbours exist.
	First Key = "a0"

	smallestInteger = "A00000000000000000000000000"
)

var (
	// ErrInvalidKey indicates a malformed order key.
	ErrInvalidKey = errors.New("invalid order key")

	// ErrOutOfOrder indicates that the lower bound is not below the upper bound.
	ErrOutOfOrder = errors.New("lower bound must sort before upper bound")

	// ErrExhausted indicates the integer range cannot grow any further.
	ErrExhausted = errors.New("order key range exhausted")
)

// Compare orders two keys: equal strings compare equal, anything else
// compares by bytes.
func Compare(a, b Key) int {
	return strings.Compare(string(a), string(b))
}

// Validate reports whether k is a well-formed key.
func Validate(k Key) error {
	s := string(k)
	if s == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if s == smallestInteger {
		return fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	i, err := integerPart(s)
	if err != nil {
		return err
	}
	if strings.HasSuffix(s[len(i):], "0") {
		return fmt.Errorf("%w: trailing zero in %q", ErrInvalidKey, s)
	}
	return nil
}

// Between returns a key strictly greater than lo and strictly less than hi.
// An empty lo means "no lower bound", an empty hi means "no upper bound".
// Repeated insertion at the same point always succeeds; keys simply grow.
func Between(lo, hi Key) (Key, error) {
	a, b := string(lo), string(hi)
	if a != "" {
		if err := Validate(lo); err != nil {
			return "", err
		}
	}
	if b != "" {
		if err := Validate(hi); err != nil {
			return "", err
		}
	}
	if a != "" && b != "" && a >= b {
		return "", fmt.Errorf("%w: %q >= %q", ErrOutOfOrder, a, b)
	}

	if a == "" {
		if b == "" {
			return First, nil
		}
		ib, _ := integerPart(b)
		fb := b[len(ib):]
		if ib == smallestInteger {
			m, err := midpoint("", fb)
			if err != nil {
				return "", err
			}
			return Key(ib + m), nil
		}
		if ib < b {
			return Key(ib), nil
		}
		res, ok := decrementInteger(ib)
		if !ok {
			return "", fmt.Errorf("%w: cannot decrement %q", ErrExhausted, b)
		}
		return Key(res), nil
	}

	if b == "" {
		ia, _ := integerPart(a)
		fa := a[len(ia):]
		if i, ok := incrementInteger(ia); ok {
			return Key(i), nil
		}
		m, err := midpoint(fa, "")
		if err != nil {
			return "", err
		}
		return Key(ia + m), nil
	}

	ia, _ := integerPart(a)
	fa := a[len(ia):]
	ib, _ := integerPart(b)
	fb := b[len(ib):]
	if ia == ib {
		m, err := midpoint(fa, fb)
		if err != nil {
			return "", err
		}
		return Key(ia + m), nil
	}
	i, ok := incrementInteger(ia)
	if !ok {
		return "", fmt.Errorf("%w: cannot increment %q", ErrExhausted, a)
	}
	if i < b {
		return Key(i), nil
	}
	m, err := midpoint(fa, "")
	if err != nil {
		return "", err
	}
	return Key(ia + m), nil
}

// After returns a key ordered after k, or First when k is empty.
func After(k Key) (Key, error) {
	return Between(k, "")
}

// Before returns a key ordered before k, or First when k is empty.
func Before(k Key) (Key, error) {
	return Between("", k)
}

// midpoint returns a fraction strictly between a and b, where b == "" means
// unbounded. Neither argument may end in '0'.
func midpoint(a, b string) (string, error) {
	if b != "" && a >= b {
		return "", fmt.Errorf("%w: fraction %q >= %q", ErrOutOfOrder, a, b)
	}
	if strings.HasSuffix(a, "0") || strings.HasSuffix(b, "0") {
		return "", fmt.Errorf("%w: trailing zero", ErrInvalidKey)
	}
	if b != "" {
		// shared prefix, treating a as padded with zeros
		n := 0
		for n < len(b) && digitAt(a, n) == b[n] {
			n++
		}
		if n > 0 {
			rest := ""
			if n < len(a) {
				rest = a[n:]
			}
			m, err := midpoint(rest, b[n:])
			if err != nil {
				return "", err
			}
			return b[:n] + m, nil
		}
	}

	digitA := 0
	if a != "" {
		digitA = strings.IndexByte(digits, a[0])
	}
	digitB := len(digits)
	if b != "" {
		digitB = strings.IndexByte(digits, b[0])
	}
	if digitB-digitA > 1 {
		mid := (digitA + digitB + 1) / 2
		return string(digits[mid]), nil
	}
	if len(b) > 1 {
		return b[:1], nil
	}
	rest := ""
	if len(a) > 1 {
		rest = a[1:]
	}
	m, err := midpoint(rest, "")
	if err != nil {
		return "", err
	}
	return string(digits[digitA]) + m, nil
}

func digitAt(s string, i int) byte {
	if i < len(s) {
		return s[i]
	}
	return '0'
}

func integerLength(head byte) (int, error) {
	switch {
	case head >= 'a' && head <= 'z':
		return int(head-'a') + 2, nil
	case head >= 'A' && head <= 'Z':
		return int('Z'-head) + 2, nil
	default:
		return 0, fmt.Errorf("%w: head %q", ErrInvalidKey, head)
	}
}

func integerPart(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	n, err := integerLength(s[0])
	if err != nil {
		return "", err
	}
	if n > len(s) {
		return "", fmt.Errorf("%w: truncated integer part in %q", ErrInvalidKey, s)
	}
	for i := 1; i < len(s); i++ {
		if strings.IndexByte(digits, s[i]) < 0 {
			return "", fmt.Errorf("%w: bad digit %q in %q", ErrInvalidKey, s[i], s)
		}
	}
	return s[:n], nil
}

// incrementInteger returns the next integer part, or false once 'z...' overflows.
func incrementInteger(x string) (string, bool) {
	head := x[0]
	digs := []byte(x[1:])
	carry := true
	for i := len(digs) - 1; carry && i >= 0; i-- {
		d := strings.IndexByte(digits, digs[i]) + 1
		if d == len(digits) {
			digs[i] = '0'
		} else {
			digs[i] = digits[d]
			carry = false
		}
	}
	if !carry {
		return string(head) + string(digs), true
	}
	if head == 'Z' {
		return string(First), true
	}
	if head == 'z' {
		return "", false
	}
	h := head + 1
	if h > 'a' {
		digs = append(digs, '0')
	} else {
		digs = digs[:len(digs)-1]
	}
	return string(h) + string(digs), true
}

// decrementInteger returns the previous integer part, or false once 'A...' underflows.
func decrementInteger(x string) (string, bool) {
	head := x[0]
	digs := []byte(x[1:])
	borrow := true
	last := digits[len(digits)-1]
	for i := len(digs) - 1; borrow && i >= 0; i-- {
		d := strings.IndexByte(digits, digs[i]) - 1
		if d == -1 {
			digs[i] = last
		} else {
			digs[i] = digits[d]
			borrow = false
		}
	}
	if !borrow {
		return string(head) + string(digs), true
	}
	if head == 'a' {
		return "Z" + string(last), true
	}
	if head == 'A' {
		return "", false
	}
	h := head - 1
	if h < 'Z' {
		digs = append(digs, last)
	} else {
		digs = digs[:len(digs)-1]
	}
	return string(h) + string(digs), true
}
