package enums

import "fmt"

// TargetType discriminates the two inventory shapes a reservation can claim:
// a single discrete asset, or pooled units of an interchangeable model.
type TargetType string

const (
	TargetTypeAsset TargetType = "asset"
	TargetTypeModel TargetType = "model"
)

var validTargetTypes = []TargetType{
	TargetTypeAsset,
	TargetTypeModel,
}

// String implements fmt.Stringer.
func (t TargetType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TargetType.
func (t TargetType) IsValid() bool {
	for _, candidate := range validTargetTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTargetType converts raw input into a TargetType.
func ParseTargetType(value string) (TargetType, error) {
	for _, candidate := range validTargetTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid target type %q", value)
}
