package models

// Protocol is the closed set of VPN protocols the panel manages.
type Protocol string

const (
	ProtocolAmneziaWG Protocol = "AMNEZIAWG"
	ProtocolXray      Protocol = "XRAY"
)

// ProtocolFilterAll is the sentinel that disables protocol filtering.
const ProtocolFilterAll = "All"

var protocolAPINames = map[Protocol]string{
	ProtocolAmneziaWG: "amneziawg",
	ProtocolXray:      "xray",
}

var protocolDisplayNames = map[Protocol]string{
	ProtocolAmneziaWG: "AmneziaWG",
	ProtocolXray:      "XRAY",
}

var apiNameProtocols = map[string]Protocol{
	"amneziawg": ProtocolAmneziaWG,
	"xray":      ProtocolXray,
}

// APIName returns the name the provisioning API uses for the protocol.
func (p Protocol) APIName() string {
	return protocolAPINames[p]
}

// DisplayName returns the human-readable protocol name.
func (p Protocol) DisplayName() string {
	if name, ok := protocolDisplayNames[p]; ok {
		return name
	}
	return "Not specified"
}

// Valid reports whether p is a known protocol.
func (p Protocol) Valid() bool {
	_, ok := protocolAPINames[p]
	return ok
}

// ProtocolFromAPIName maps a provisioning API protocol name back to the
// panel protocol. Unknown names return false.
func ProtocolFromAPIName(name string) (Protocol, bool) {
	p, ok := apiNameProtocols[name]
	return p, ok
}
