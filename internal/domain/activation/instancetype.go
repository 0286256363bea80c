// Package activation models seats: concurrently active installations of a license.
package activation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxIdentifierLength bounds an instance identifier in characters.
const MaxIdentifierLength = 500

// InstanceType describes what an instance identifier names
type InstanceType string

const (
	InstanceTypeURL       InstanceType = "url"
	InstanceTypeHostname  InstanceType = "hostname"
	InstanceTypeMachineID InstanceType = "machine_id"
)

// IsValid checks if the instance type is known
func (t InstanceType) IsValid() bool {
	switch t {
	case InstanceTypeURL, InstanceTypeHostname, InstanceTypeMachineID:
		return true
	default:
		return false
	}
}

func (t InstanceType) String() string {
	return string(t)
}

// NormalizeIdentifier trims an instance identifier and checks its length.
func NormalizeIdentifier(identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", fmt.Errorf("instance_identifier is required")
	}
	if utf8.RuneCountInString(identifier) > MaxIdentifierLength {
		return "", fmt.Errorf("instance_identifier must be at most %d characters", MaxIdentifierLength)
	}
	return identifier, nil
}
