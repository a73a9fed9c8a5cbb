// Package compute holds the wire schema of off-chain compute jobs run
// against published datasets.
package compute

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/defistate/ocean-client-go/metadatastore"
	"github.com/ethereum/go-ethereum/common"
)

var ErrInvalidJob = errors.New("invalid compute job")

// JobStatus is the numeric state a compute provider reports for a job.
type JobStatus int

const (
	StatusWarmingUp            JobStatus = 1
	StatusStarted              JobStatus = 10
	StatusConfiguringVolumes   JobStatus = 20
	StatusProvisioningSuccess  JobStatus = 30
	StatusDataProvisioningFail JobStatus = 31
	StatusAlgoProvisioningFail JobStatus = 32
	StatusRunningAlgorithm     JobStatus = 40
	StatusFilteringResults     JobStatus = 50
	StatusPublishingResults    JobStatus = 60
	StatusCompleted            JobStatus = 70
)

var statusText = map[JobStatus]string{
	StatusWarmingUp:            "Warming up",
	StatusStarted:              "Job started",
	StatusConfiguringVolumes:   "Configuring volumes",
	StatusProvisioningSuccess:  "Provisioning success",
	StatusDataProvisioningFail: "Data provisioning failed",
	StatusAlgoProvisioningFail: "Algorithm provisioning failed",
	StatusRunningAlgorithm:     "Running algorithm",
	StatusFilteringResults:     "Filtering results",
	StatusPublishingResults:    "Publishing results",
	StatusCompleted:            "Job completed",
}

func (s JobStatus) String() string {
	if t, ok := statusText[s]; ok {
		return t
	}
	return fmt.Sprintf("Unknown(%d)", int(s))
}

// Terminal reports whether no further transitions follow s.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusDataProvisioningFail, StatusAlgoProvisioningFail:
		return true
	}
	return false
}

// Failed reports whether s is a provisioning failure.
func (s JobStatus) Failed() bool {
	return s == StatusDataProvisioningFail || s == StatusAlgoProvisioningFail
}

// Job is a compute job as reported by the provider.
type Job struct {
	Owner           string              `json:"owner"`
	DID             metadatastore.DID   `json:"did,omitempty"`
	JobID           string              `json:"jobId"`
	DateCreated     string              `json:"dateCreated"`
	DateFinished    string              `json:"dateFinished"`
	Status          JobStatus           `json:"status"`
	StatusText      string              `json:"statusText"`
	AlgorithmLogURL string              `json:"algorithmLogUrl"`
	ResultsURL      []string            `json:"resultsUrl"`
	ResultsDID      metadatastore.DID   `json:"resultsDid,omitempty"`
	InputDIDs       []metadatastore.DID `json:"inputDID,omitempty"`
	AlgorithmDID    metadatastore.DID   `json:"algoDID,omitempty"`
}

// Done reports whether the job reached a terminal status.
func (j *Job) Done() bool {
	return j.Status.Terminal()
}

// Output describes where and how a job publishes its results.
type Output struct {
	PublishAlgorithmLog *bool           `json:"publishAlgorithmLog,omitempty"`
	PublishOutput       *bool           `json:"publishOutput,omitempty"`
	ProviderAddress     string          `json:"providerAddress,omitempty"`
	ProviderURI         string          `json:"providerUri,omitempty"`
	Metadata            json.RawMessage `json:"metadata,omitempty"`
	MetadataURI         string          `json:"metadataUri,omitempty"`
	NodeURI             string          `json:"nodeUri,omitempty"`
	Owner               string          `json:"owner,omitempty"`
	SecretStoreURI      string          `json:"secretStoreUri,omitempty"`
	Whitelist           []string        `json:"whitelist,omitempty"`
}

// Input is one dataset a job consumes.
type Input struct {
	DocumentID   metadatastore.DID `json:"documentId"`
	ServiceID    int               `json:"serviceId"`
	TransferTxID string            `json:"transferTxId,omitempty"`
}

// Validate checks that the input names a well-formed dataset and service.
func (in Input) Validate() error {
	if _, err := metadatastore.ParseDID(string(in.DocumentID)); err != nil {
		return fmt.Errorf("%w: input document: %w", ErrInvalidJob, err)
	}
	if in.ServiceID < 0 {
		return fmt.Errorf("%w: input service id %d", ErrInvalidJob, in.ServiceID)
	}
	return nil
}

// Container is the image an algorithm runs in.
type Container struct {
	Entrypoint string `json:"entrypoint"`
	Image      string `json:"image"`
	Tag        string `json:"tag"`
}

// AlgorithmMeta is an inline algorithm definition.
type AlgorithmMeta struct {
	URL       string    `json:"url,omitempty"`
	RawCode   string    `json:"rawcode,omitempty"`
	Language  string    `json:"language,omitempty"`
	Format    string    `json:"format,omitempty"`
	Version   string    `json:"version,omitempty"`
	Container Container `json:"container"`
}

// Algorithm selects the code a job runs: either a published asset or inline meta.
type Algorithm struct {
	DID          metadatastore.DID `json:"did,omitempty"`
	ServiceIndex *int              `json:"serviceIndex,omitempty"`
	Meta         *AlgorithmMeta    `json:"meta,omitempty"`
	TransferTxID string            `json:"transferTxId,omitempty"`
	DataToken    *common.Address   `json:"dataToken,omitempty"`
}

// Validate requires exactly one of DID or Meta. Inline code needs an image
// and either a URL or raw code.
func (a Algorithm) Validate() error {
	hasDID := a.DID != ""
	switch {
	case hasDID && a.Meta != nil:
		return fmt.Errorf("%w: algorithm has both did and meta", ErrInvalidJob)
	case !hasDID && a.Meta == nil:
		return fmt.Errorf("%w: algorithm needs a did or meta", ErrInvalidJob)
	}
	if hasDID {
		if _, err := metadatastore.ParseDID(string(a.DID)); err != nil {
			return fmt.Errorf("%w: algorithm: %w", ErrInvalidJob, err)
		}
		return nil
	}
	if strings.TrimSpace(a.Meta.Container.Image) == "" {
		return fmt.Errorf("%w: algorithm container image is required", ErrInvalidJob)
	}
	if a.Meta.URL == "" && a.Meta.RawCode == "" {
		return fmt.Errorf("%w: algorithm needs a url or raw code", ErrInvalidJob)
	}
	return nil
}
