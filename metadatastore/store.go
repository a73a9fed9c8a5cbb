// Package metadatastore stores and resolves asset metadata documents (DDOs)
// keyed by DID. MemoryStore keeps them in process, AquariusStore talks to a
// metadata cache over HTTP and RedisStore keeps them in Redis.
package metadatastore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrNotFound           = errors.New("document not found")
	ErrInvalidDID         = errors.New("invalid did")
	ErrInvalidDocument    = errors.New("invalid document")
	ErrAccessUnsupported  = errors.New("access url resolution not configured")
	ErrInvalidAccessToken = errors.New("invalid access token")
)

// DDO is an asset's metadata document. Only the identifying fields are
// typed; Document carries the rest verbatim.
type DDO struct {
	Context   string          `json:"@context,omitempty"`
	ID        DID             `json:"id"`
	DataToken common.Address  `json:"dataToken"`
	Created   time.Time       `json:"created"`
	Document  json.RawMessage `json:"document,omitempty"`
}

// Validate checks that the DID is well-formed and matches the datatoken.
func (d *DDO) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: nil document", ErrInvalidDocument)
	}
	id, err := ParseDID(string(d.ID))
	if err != nil {
		return err
	}
	if d.DataToken != (common.Address{}) && NewDID(d.DataToken) != id {
		return fmt.Errorf("%w: %s does not belong to datatoken %s", ErrInvalidDocument, d.ID, d.DataToken)
	}
	if len(d.Document) > 0 && !json.Valid(d.Document) {
		return fmt.Errorf("%w: document body is not valid JSON", ErrInvalidDocument)
	}
	return nil
}

func (d *DDO) clone() *DDO {
	c := *d
	if d.Document != nil {
		c.Document = append(json.RawMessage(nil), d.Document...)
	}
	return &c
}

// AccessToken locates the service that resolves a download URL.
type AccessToken struct {
	ServiceEndpoint string `json:"service_endpoint"`
	ResourceID      string `json:"resource_id"`
}

func (t AccessToken) validate() error {
	if t.ServiceEndpoint == "" || t.ResourceID == "" {
		return ErrInvalidAccessToken
	}
	return nil
}

// AccessResolver resolves the download URL of a consumable asset.
type AccessResolver interface {
	GetAccessURL(ctx context.Context, token AccessToken, payload any) (string, error)
}

// Store persists DDOs and resolves access URLs. RetrieveDDO returns
// ErrNotFound for unknown DIDs.
type Store interface {
	AccessResolver
	StoreDDO(ctx context.Context, ddo *DDO) (*DDO, error)
	RetrieveDDO(ctx context.Context, did DID) (*DDO, error)
}
