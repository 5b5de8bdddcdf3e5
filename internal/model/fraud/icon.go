package fraud

import (
	"encoding/json"
	"fmt"

	"github.com/zhouzirui/scam-shield/backend/internal/fault"
)

// Icon is the fixed set of pictograms a category may use. Frontends map each
// value to a concrete glyph.
type Icon int

const (
	IconUnknown Icon = iota
	IconPhoneCall
	IconCreditCard
	IconLandmark
	IconShoppingCart
	IconTrendingUp
	IconHeartCrack
	IconMessageWarning
	IconUserCheck
)

var iconKeys = map[string]Icon{
	"PhoneCall":            IconPhoneCall,
	"CreditCard":           IconCreditCard,
	"Landmark":             IconLandmark,
	"ShoppingCart":         IconShoppingCart,
	"TrendingUp":           IconTrendingUp,
	"HeartCrack":           IconHeartCrack,
	"MessageSquareWarning": IconMessageWarning,
	"UserCheck":            IconUserCheck,
}

// ParseIcon resolves a document key. Unknown keys are a ConfigurationError;
// there is no silent fallback glyph.
func ParseIcon(key string) (Icon, error) {
	icon, ok := iconKeys[key]
	if !ok {
		return IconUnknown, &fault.ConfigurationError{Key: "icon", Reason: fmt.Sprintf("unknown icon %q", key)}
	}
	return icon, nil
}

// String returns the document key for the icon.
func (i Icon) String() string {
	for key, icon := range iconKeys {
		if icon == i {
			return key
		}
	}
	return "Unknown"
}

// MarshalJSON encodes the icon as its key.
func (i Icon) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.String())
}

// UnmarshalText lets the TOML decoder validate icons while loading.
func (i *Icon) UnmarshalText(text []byte) error {
	icon, err := ParseIcon(string(text))
	if err != nil {
		return err
	}
	*i = icon
	return nil
}
