package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jaradmin/jar-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID       uuid.UUID
	Role         enums.Role
	Capabilities enums.CapabilitySet
	JTI          string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID       uuid.UUID  `json:"user_id"`
	Role         enums.Role `json:"role"`
	Capabilities []string   `json:"capabilities,omitempty"`
	jwt.RegisteredClaims
}

// CapabilitySet rebuilds the typed set from the claim strings. Unknown values
// are dropped rather than rejected so old tokens survive capability renames.
func (c AccessTokenClaims) CapabilitySet() enums.CapabilitySet {
	set := enums.NewCapabilitySet()
	for _, raw := range c.Capabilities {
		parsed, err := enums.ParseCapability(raw)
		if err != nil {
			continue
		}
		set[parsed] = struct{}{}
	}
	return set
}
