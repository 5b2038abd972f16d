// Package validation checks and normalizes request input before it reaches the services.
package validation

import (
	"fmt"
	"html"
	"net/mail"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/I-Yanis-I/museum-app/internal/domain/user"
	"github.com/microcosm-cc/bluemonday"
)

// Errors maps a field name to its failed rules.
type Errors map[string][]string

func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e[f], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Err returns nil when no rule failed.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

var (
	strictPolicy  = bluemonday.StrictPolicy()
	passwordLower = regexp.MustCompile(`[a-z]`)
	passwordUpper = regexp.MustCompile(`[A-Z]`)
	passwordDigit = regexp.MustCompile(`\d`)
)

func checkEmail(errs Errors, field, v string) {
	n := utf8.RuneCountInString(v)
	switch {
	case n == 0:
		errs.Add(field, "Email is required")
		return
	case n < 5:
		errs.Add(field, "Email must be at least 5 characters")
	case n > 255:
		errs.Add(field, "Email must be less than 255 characters")
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v || !strings.Contains(v[strings.LastIndex(v, "@")+1:], ".") {
		errs.Add(field, "Invalid email format")
	}
}

func checkPassword(errs Errors, field, v string) {
	n := utf8.RuneCountInString(v)
	switch {
	case n == 0:
		errs.Add(field, "Password is required")
		return
	case n < 8:
		errs.Add(field, "Password must be at least 8 characters")
	case n > 100:
		errs.Add(field, "Password must be less than 100 characters")
	}
	if !passwordLower.MatchString(v) || !passwordUpper.MatchString(v) || !passwordDigit.MatchString(v) {
		errs.Add(field, "Password must contain at least one uppercase letter, one lowercase letter, and one number")
	}
}

func checkName(errs Errors, field, label, v string, required bool) {
	n := utf8.RuneCountInString(v)
	switch {
	case n == 0 && required:
		errs.Add(field, label+" is required")
		return
	case n == 0:
		errs.Add(field, label+" must not be empty")
		return
	case n > 100:
		errs.Add(field, label+" must be less than 100 characters")
	}
	if html.UnescapeString(strictPolicy.Sanitize(v)) != v {
		errs.Add(field, label+" must not contain markup")
	}
}

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Normalize lower-cases and trims the email and trims the names. The password is kept as typed.
func (in *RegisterInput) Normalize() {
	in.Email = user.NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
}

func (in *RegisterInput) Validate() error {
	in.Normalize()
	errs := Errors{}
	checkEmail(errs, "email", in.Email)
	checkPassword(errs, "password", in.Password)
	checkName(errs, "firstName", "First name", in.FirstName, true)
	checkName(errs, "lastName", "Last name", in.LastName, true)
	return errs.Err()
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in *LoginInput) Validate() error {
	in.Email = user.NormalizeEmail(in.Email)
	errs := Errors{}
	if in.Email == "" {
		errs.Add("email", "Email is required")
	} else if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		errs.Add("email", "Invalid email format")
	}
	if in.Password == "" {
		errs.Add("password", "Password is required")
	}
	return errs.Err()
}

// ProfilePatch holds the mutable profile fields; nil means unchanged.
type ProfilePatch struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
}

func (p *ProfilePatch) Validate() error {
	errs := Errors{}
	if p.FirstName == nil && p.LastName == nil {
		errs.Add("body", "At least one of firstName, lastName is required")
		return errs
	}
	if p.FirstName != nil {
		v := strings.TrimSpace(*p.FirstName)
		p.FirstName = &v
		checkName(errs, "firstName", "First name", v, false)
	}
	if p.LastName != nil {
		v := strings.TrimSpace(*p.LastName)
		p.LastName = &v
		checkName(errs, "lastName", "Last name", v, false)
	}
	return errs.Err()
}
