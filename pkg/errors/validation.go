package errors

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// maxNameLength bounds package names. npm itself stops at 214.
const maxNameLength = 256

// maxPathLength matches Linux PATH_MAX. Nested node_modules locations
// routinely run past a few hundred characters.
const maxPathLength = 4096

// unsafeNameSequences may not appear anywhere in a package name, since names
// are joined into node_modules locations.
var unsafeNameSequences = []string{"..", "//", "\\"}

// npmName matches lowercase, optionally scoped npm package names.
var npmName = regexp.MustCompile(`^(@[a-z0-9-~][a-z0-9-._~]*/)?[a-z0-9-~][a-z0-9-._~]*$`)

// ValidatePackageName rejects names that are empty, overly long, absolute,
// contain control characters, or could escape a node_modules directory when
// joined into a location.
func ValidatePackageName(name string) error {
	switch {
	case name == "":
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	case len(name) > maxNameLength:
		return New(ErrCodeInvalidPackage, "package name too long (max %d characters)", maxNameLength)
	case strings.IndexFunc(name, unicode.IsControl) >= 0:
		return New(ErrCodeInvalidPackage, "package name %q contains control characters", name)
	case strings.HasPrefix(name, "/"):
		return New(ErrCodeInvalidPackage, "package name %q cannot start with /", name)
	}
	for _, seq := range unsafeNameSequences {
		if strings.Contains(name, seq) {
			return New(ErrCodeInvalidPackage, "package name %q contains %q", name, seq)
		}
	}
	return nil
}

// ValidateNpmPackageName additionally enforces npm's naming rules.
func ValidateNpmPackageName(name string) error {
	if err := ValidatePackageName(name); err != nil {
		return err
	}
	if npmName.MatchString(name) {
		return nil
	}
	if strings.ToLower(name) != name {
		return New(ErrCodeInvalidPackage, "npm package names must be lowercase: %q", name)
	}
	return New(ErrCodeInvalidPackage, "invalid npm package name: %q", name)
}

// ValidatePath checks a forward-slash location inside a package: relative,
// bounded in length, free of control characters and backslashes, and without
// ".." segments.
func ValidatePath(p string) error {
	switch {
	case p == "":
		return New(ErrCodeInvalidPath, "path cannot be empty")
	case len(p) > maxPathLength:
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	case strings.IndexFunc(p, unicode.IsControl) >= 0:
		return New(ErrCodeInvalidPath, "path %q contains control characters", p)
	case strings.HasPrefix(p, "/"):
		return New(ErrCodeInvalidPath, "path %q must be relative", p)
	case strings.Contains(p, "\\"):
		return New(ErrCodeInvalidPath, "path %q contains backslashes", p)
	case slices.Contains(strings.Split(p, "/"), ".."):
		return New(ErrCodeInvalidPath, "path %q escapes the package root", p)
	}
	return nil
}
