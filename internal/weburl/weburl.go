package weburl

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalid is returned by Validate for strings that are not fetchable URLs.
var ErrInvalid = errors.New("the provided URL is invalid, it must start with ftp://, http:// or https://")

// Only the prefix has to match: anything after a well-formed scheme://host
// is passed to the transport untouched.
var pattern = regexp.MustCompile(`^(ftp|http|https)://(\w+:?\w*@)?(\S+)(:[0-9]+)?(/|/([\w#!:.?+=&%@!\-/]))?`)

func Valid(s string) bool {
	return pattern.MatchString(s)
}

func Validate(s string) error {
	if !Valid(s) {
		return fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return nil
}
