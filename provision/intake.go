package provision

import (
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/smarttuppleware/hubprov"
)

var (
	// ErrInvalidEncoding rejects payloads that are not valid UTF-8. Unlike
	// the token path, credential intake is strict about encoding.
	ErrInvalidEncoding = errors.New("credential payload is not valid utf-8")

	// ErrInvalidStructure rejects payloads that do not parse as the
	// expected json object.
	ErrInvalidStructure = errors.New("credential payload is not a valid json object")

	// ErrMissingSSID rejects payloads without an ssid; an empty ssid
	// counts as missing.
	ErrMissingSSID = errors.New("credential payload is missing ssid")
)

type credentialPayload struct {
	SSID     *string `json:"ssid"`
	Password *string `json:"password"`
}

// ParseCredentials validates and decodes a raw credential write. The
// password field may be absent or null; both decode to an empty password.
func ParseCredentials(raw []byte) (hubprov.Credentials, error) {
	if !utf8.Valid(raw) {
		return hubprov.Credentials{}, ErrInvalidEncoding
	}

	var p credentialPayload
	if err := jsoniter.Unmarshal(raw, &p); err != nil {
		return hubprov.Credentials{}, errors.WithMessage(ErrInvalidStructure, err.Error())
	}

	if p.SSID == nil || *p.SSID == "" {
		return hubprov.Credentials{}, ErrMissingSSID
	}

	c := hubprov.Credentials{SSID: *p.SSID}
	if p.Password != nil {
		c.Password = *p.Password
	}
	return c, nil
}
