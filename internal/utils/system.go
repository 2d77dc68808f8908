package utils

import (
	"os"
	"os/user"
	"regexp"
	"strconv"
	"strings"
)

var (
	invalidNameChars = regexp.MustCompile(`[^a-z0-9\-_.]`)
	repeatedHyphens  = regexp.MustCompile(`-+`)
)

// GetUsername returns the current username.
func GetUsername() (string, error) {
	user, err := user.Current()
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

// GetHostname returns the system hostname.
func GetHostname() (string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return "", err
	}
	return hostname, nil
}

// SanitizeName normalizes a display name for use as a workspace user name.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "-")
	name = invalidNameChars.ReplaceAllString(name, "")
	name = repeatedHyphens.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")

	if name == "" {
		name = "user"
	}
	return name
}

// GenerateUserName derives a default user name from the system username.
// A numeric suffix (-2, -3, ...) is appended when the name is already taken.
func GenerateUserName(existingNames []string) string {
	base, err := GetUsername()
	if err != nil {
		base, err = GetHostname()
		if err != nil {
			base = "user"
		}
	}

	return UniqueName(SanitizeName(base), existingNames)
}

// UniqueName returns base, or base with the first free numeric suffix.
func UniqueName(base string, existingNames []string) string {
	existingSet := make(map[string]bool)
	for _, name := range existingNames {
		existingSet[strings.ToLower(name)] = true
	}

	name := base
	suffix := 2
	for existingSet[strings.ToLower(name)] {
		name = base + "-" + strconv.Itoa(suffix)
		suffix++
	}
	return name
}
