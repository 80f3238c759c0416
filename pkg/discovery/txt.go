package discovery

import (
	"fmt"
	"regexp"
)

// TXT record keys for the HAP Bonjour service (_hap._tcp).
const (
	TXTKeyConfigNumber = "c#"
	TXTKeyFeatureFlags = "ff"
	TXTKeyID           = "id"
	TXTKeyModel        = "md"
	TXTKeyProtoVersion = "pv"
	TXTKeyStateNumber  = "s#"
	TXTKeyStatusFlags  = "sf"
	TXTKeyCategory     = "ci"
	TXTKeySetupHash    = "sh"
)

// StatusFlags bits (the "sf" key). A clear bit means the condition does
// not hold; accessories advertise StatusFlagUnpaired until the first
// successful pair-setup.
const (
	StatusFlagUnpaired          uint8 = 1 << 0
	StatusFlagNotConfiguredWiFi uint8 = 1 << 1
	StatusFlagProblemDetected   uint8 = 1 << 2
)

// DefaultProtocolVersion is the "pv" value advertised when TXT.ProtocolVersion
// is left empty.
const DefaultProtocolVersion = "1.1"

var idPattern = regexp.MustCompile(`^([0-9A-F]{2}:){5}[0-9A-F]{2}$`)

// TXT holds the TXT record fields of an advertised HAP accessory, per
// HAP-R2 chapter 6.4 (Discovery).
type TXT struct {
	// ID is the accessory's pairing identifier, a six-byte value
	// formatted "XX:XX:XX:XX:XX:XX" (uppercase hex). Required, and must
	// remain stable for the accessory's lifetime.
	ID string

	// ConfigNumber ("c#") is the current configuration number. It must
	// increment (and the service must be re-advertised) whenever the
	// accessory's attribute database changes.
	ConfigNumber uint32

	// StateNumber ("s#") is 1 for the current HAP version. Encode
	// advertises 1 when it is left 0.
	StateNumber uint32

	// FeatureFlags ("ff") advertises pairing-related capabilities
	// (e.g. support for MFi Hardware Authentication). 0 if none.
	FeatureFlags uint8

	// StatusFlags ("sf") is the StatusFlag* bitmask describing current
	// pairing/configuration state.
	StatusFlags uint8

	// Category ("ci") is the accessory category identifier (e.g. 5 for
	// a lightbulb). Validate does not check it.
	Category uint32

	// Model ("md") is the accessory's model name. Required, non-empty.
	Model string

	// ProtocolVersion ("pv") defaults to DefaultProtocolVersion when
	// empty.
	ProtocolVersion string

	// SetupHash ("sh"), when non-empty, is the base64 setup hash used
	// by pairing UIs to match a scanned QR code to the mDNS browse
	// result. Optional.
	SetupHash string
}

// Validate checks the fields required by every advertisement.
func (t TXT) Validate() error {
	if !idPattern.MatchString(t.ID) {
		return ErrInvalidID
	}
	if t.Model == "" {
		return ErrInvalidModel
	}
	return nil
}

// Encode converts the TXT record to DNS-SD "key=value" strings.
func (t TXT) Encode() []string {
	pv := t.ProtocolVersion
	if pv == "" {
		pv = DefaultProtocolVersion
	}
	state := t.StateNumber
	if state == 0 {
		state = 1
	}

	txt := []string{
		fmt.Sprintf("%s=%d", TXTKeyConfigNumber, t.ConfigNumber),
		fmt.Sprintf("%s=%d", TXTKeyFeatureFlags, t.FeatureFlags),
		fmt.Sprintf("%s=%s", TXTKeyID, t.ID),
		fmt.Sprintf("%s=%s", TXTKeyModel, t.Model),
		fmt.Sprintf("%s=%s", TXTKeyProtoVersion, pv),
		fmt.Sprintf("%s=%d", TXTKeyStateNumber, state),
		fmt.Sprintf("%s=%d", TXTKeyStatusFlags, t.StatusFlags),
		fmt.Sprintf("%s=%d", TXTKeyCategory, t.Category),
	}
	if t.SetupHash != "" {
		txt = append(txt, fmt.Sprintf("%s=%s", TXTKeySetupHash, t.SetupHash))
	}
	return txt
}
