package amnezia

import (
	"encoding/json"
	"fmt"

	"panel-backend/pkg/httpclient"
)

// ValidateBackup parses and shape-checks a server backup payload. A payload
// that does not match the fixed schema yields a KindValidation error; no
// network is involved.
func ValidateBackup(raw []byte) (*ServerBackup, error) {
	var backup ServerBackup
	if err := json.Unmarshal(raw, &backup); err != nil {
		return nil, httpclient.NewError(httpclient.KindValidation, "backup is not valid JSON: %v", err)
	}

	if backup.GeneratedAt == "" {
		return nil, validationError("generatedAt is missing")
	}
	if backup.ServerID == "" {
		return nil, validationError("serverId is missing")
	}
	if len(backup.Protocols) == 0 {
		return nil, validationError("protocols list is empty")
	}

	if backup.Amnezia == nil {
		return nil, validationError("amnezia block is missing")
	}
	if backup.Amnezia.WGConfig == "" {
		return nil, validationError("amnezia.wgConfig is missing")
	}
	if backup.Amnezia.PresharedKey == "" {
		return nil, validationError("amnezia.presharedKey is missing")
	}
	if backup.Amnezia.ServerPublicKey == "" {
		return nil, validationError("amnezia.serverPublicKey is missing")
	}
	for i, client := range backup.Amnezia.Clients {
		if client.ClientID == "" {
			return nil, validationError(fmt.Sprintf("amnezia.clients[%d].clientId is missing", i))
		}
		if client.UserData.ClientName == "" {
			return nil, validationError(fmt.Sprintf("amnezia.clients[%d].userData.clientName is missing", i))
		}
		if client.UserData.CreationDate == "" {
			return nil, validationError(fmt.Sprintf("amnezia.clients[%d].userData.creationDate is missing", i))
		}
	}

	if backup.Xray == nil {
		return nil, validationError("xray block is missing")
	}
	if backup.Xray.ServerConfig == "" {
		return nil, validationError("xray.serverConfig is missing")
	}
	if backup.Xray.UUID == "" {
		return nil, validationError("xray.uuid is missing")
	}
	if backup.Xray.PublicKey == "" {
		return nil, validationError("xray.publicKey is missing")
	}
	if backup.Xray.PrivateKey == "" {
		return nil, validationError("xray.privateKey is missing")
	}
	if backup.Xray.ShortID == "" {
		return nil, validationError("xray.shortId is missing")
	}

	return &backup, nil
}

func validationError(detail string) *httpclient.Error {
	return httpclient.NewError(httpclient.KindValidation, "invalid server backup: %s", detail)
}
