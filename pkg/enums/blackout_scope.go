package enums

import "fmt"

// BlackoutScope describes which targets a blackout slot applies to.
type BlackoutScope string

const (
	BlackoutScopeGlobal BlackoutScope = "global"
	BlackoutScopeAsset  BlackoutScope = "asset"
)

var validBlackoutScopes = []BlackoutScope{
	BlackoutScopeGlobal,
	BlackoutScopeAsset,
}

// String implements fmt.Stringer.
func (b BlackoutScope) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BlackoutScope.
func (b BlackoutScope) IsValid() bool {
	for _, candidate := range validBlackoutScopes {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBlackoutScope converts raw input into a BlackoutScope.
func ParseBlackoutScope(value string) (BlackoutScope, error) {
	for _, candidate := range validBlackoutScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid blackout scope %q", value)
}
