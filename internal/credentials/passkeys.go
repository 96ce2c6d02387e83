package credentials

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Well-known source names.
const (
	SourcePasskeys       = "passkeys"
	SourceServiceAccount = "service-account"
)

// Passkeys is the decoded passkey store. It carries the access token and
// ad account identifier the Graph API client authenticates with.
type Passkeys struct {
	AccessToken string `json:"accessToken"`
	AdAccountID string `json:"adAccountId"`
}

// DecodePasskeys parses and validates a passkey store document.
func DecodePasskeys(data []byte) (any, error) {
	var pk Passkeys
	if err := json.Unmarshal(data, &pk); err != nil {
		return nil, fmt.Errorf("parse passkeys document: %w", err)
	}

	var missing []string
	if pk.AccessToken == "" {
		missing = append(missing, "accessToken")
	}
	if pk.AdAccountID == "" {
		missing = append(missing, "adAccountId")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required config keys: %s", strings.Join(missing, ", "))
	}

	return &pk, nil
}

// PasskeysSource builds the passkey store source for the given path.
func PasskeysSource(path string) Source {
	return Source{Name: SourcePasskeys, Path: path, Decode: DecodePasskeys}
}

// ServiceAccountSource builds the service-account key source. The document
// is kept opaque — only a minimal structural check is applied; the Sheets
// client owns the full parse.
func ServiceAccountSource(path string) Source {
	return Source{Name: SourceServiceAccount, Path: path, Decode: decodeServiceAccount}
}

// decodeServiceAccount verifies the document is JSON of type
// "service_account" without interpreting the key material.
func decodeServiceAccount(data []byte) (any, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse service-account key: %w", err)
	}
	if probe.Type != "service_account" {
		return nil, fmt.Errorf("unexpected credential type %q (want service_account)", probe.Type)
	}
	return data, nil
}

// PasskeysFrom extracts the decoded passkey store from a loaded Store.
func PasskeysFrom(s *Store) (*Passkeys, error) {
	h, ok := s.Handle(SourcePasskeys)
	if !ok {
		return nil, fmt.Errorf("passkeys source not loaded")
	}
	pk, ok := h.(*Passkeys)
	if !ok {
		return nil, fmt.Errorf("unexpected passkeys handle type %T", h)
	}
	return pk, nil
}

// ServiceAccountJSON extracts the raw service-account key document.
func ServiceAccountJSON(s *Store) ([]byte, error) {
	b, ok := s.Raw(SourceServiceAccount)
	if !ok {
		return nil, fmt.Errorf("service-account source not loaded")
	}
	return b, nil
}
