package infra

import (
	"fmt"

	"github.com/pkg/errors"
)

// Tier identifies the layer of the continuum a VM belongs to.
type Tier int

const (
	MOBILE Tier = iota
	EDGE
	CLOUD
)

func (t Tier) String() string {
	switch t {
	case MOBILE:
		return "mobile"
	case EDGE:
		return "edge"
	case CLOUD:
		return "cloud"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// ParseTier converts a configuration string into a Tier.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "mobile", "local":
		return MOBILE, nil
	case "edge":
		return EDGE, nil
	case "cloud":
		return CLOUD, nil
	default:
		return 0, errors.Errorf("unknown tier: %s", s)
	}
}
