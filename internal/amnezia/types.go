package amnezia

// Device is a live VPN peer as reported by the provisioning API. Its
// lifecycle is owned entirely by the remote system; the panel only ever
// creates and deletes devices through explicit calls.
type Device struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	AllowedIPs    []string `json:"allowedIps"`
	LastHandshake int64    `json:"lastHandshake"`
	Traffic       Traffic  `json:"traffic"`
	Endpoint      string   `json:"endpoint"`
	Online        bool     `json:"online"`
	ExpiresAt     int64    `json:"expiresAt"`
	// Protocol is the API-side protocol name ("amneziawg" or "xray").
	Protocol string `json:"protocol"`
}

type Traffic struct {
	Received int64 `json:"received"`
	Sent     int64 `json:"sent"`
}

// User groups the devices provisioned under one remote username.
type User struct {
	Username string   `json:"username"`
	Devices  []Device `json:"devices"`
}

// DeviceList is one page of the remote device listing.
type DeviceList struct {
	Total int    `json:"total"`
	Items []User `json:"items"`
}

// CreatedClient is the payload returned for a freshly provisioned device.
// Config is the raw connection config and must be encrypted before it is
// persisted anywhere.
type CreatedClient struct {
	ID       string `json:"id"`
	Config   string `json:"config"`
	Protocol string `json:"protocol"`
}

type createResponse struct {
	Message string        `json:"message"`
	Client  CreatedClient `json:"client"`
}

// ServerInfo describes the VPN server itself.
type ServerInfo struct {
	ID         string   `json:"id"`
	Region     string   `json:"region"`
	Weight     int      `json:"weight"`
	MaxPeers   int      `json:"maxPeers"`
	TotalPeers int      `json:"totalPeers"`
	Protocols  []string `json:"protocols"`
}

// ServerBackup is the disaster-recovery blob round-tripped through the
// panel. The shape is fixed by the provisioning API; Validate rejects
// payloads that do not match it before anything goes upstream.
type ServerBackup struct {
	GeneratedAt string      `json:"generatedAt"`
	ServerID    string      `json:"serverId"`
	Protocols   []string    `json:"protocols"`
	Amnezia     *WGBackup   `json:"amnezia"`
	Xray        *XrayBackup `json:"xray"`
}

type WGBackup struct {
	WGConfig        string         `json:"wgConfig"`
	PresharedKey    string         `json:"presharedKey"`
	ServerPublicKey string         `json:"serverPublicKey"`
	Clients         []BackupClient `json:"clients"`
}

type BackupClient struct {
	ClientID  string         `json:"clientId"`
	PublicKey string         `json:"publicKey,omitempty"`
	UserData  BackupUserData `json:"userData"`
}

type BackupUserData struct {
	ClientName   string `json:"clientName"`
	CreationDate string `json:"creationDate"`
	ExpiresAt    int64  `json:"expiresAt,omitempty"`
}

type XrayBackup struct {
	ServerConfig string `json:"serverConfig"`
	UUID         string `json:"uuid"`
	PublicKey    string `json:"publicKey"`
	PrivateKey   string `json:"privateKey"`
	ShortID      string `json:"shortId"`
}
