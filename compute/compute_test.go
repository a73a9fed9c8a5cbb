package compute

import (
	"encoding/json"
	"testing"

	"github.com/defistate/ocean-client-go/metadatastore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDID = metadatastore.NewDID(common.HexToAddress("0x00000000000000000000000000000000000000aa"))

func TestJobStatus(t *testing.T) {
	testCases := []struct {
		status   JobStatus
		text     string
		terminal bool
		failed   bool
	}{
		{StatusWarmingUp, "Warming up", false, false},
		{StatusRunningAlgorithm, "Running algorithm", false, false},
		{StatusDataProvisioningFail, "Data provisioning failed", true, true},
		{StatusAlgoProvisioningFail, "Algorithm provisioning failed", true, true},
		{StatusCompleted, "Job completed", true, false},
		{JobStatus(99), "Unknown(99)", false, false},
	}
	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.text, tc.status.String())
			assert.Equal(t, tc.terminal, tc.status.Terminal())
			assert.Equal(t, tc.failed, tc.status.Failed())
		})
	}
}

func TestJobDecode(t *testing.T) {
	raw := `{
		"owner": "0xabc",
		"did": "` + string(testDID) + `",
		"jobId": "job-1",
		"dateCreated": "1607390000.1",
		"dateFinished": "",
		"status": 40,
		"statusText": "Running algorithm",
		"algorithmLogUrl": "",
		"resultsUrl": []
	}`
	var job Job
	require.NoError(t, json.Unmarshal([]byte(raw), &job))
	assert.Equal(t, "job-1", job.JobID)
	assert.Equal(t, testDID, job.DID)
	assert.Equal(t, StatusRunningAlgorithm, job.Status)
	assert.False(t, job.Done())
	assert.Empty(t, job.ResultsURL)
}

func TestOutputOmitsUnset(t *testing.T) {
	b, err := json.Marshal(Output{ProviderURI: "http://provider"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"providerUri":"http://provider"}`, string(b))
}

func TestInputValidate(t *testing.T) {
	assert.NoError(t, Input{DocumentID: testDID, ServiceID: 0}.Validate())
	assert.ErrorIs(t, Input{DocumentID: "did:op:nothex"}.Validate(), ErrInvalidJob)
	assert.ErrorIs(t, Input{DocumentID: testDID, ServiceID: -1}.Validate(), ErrInvalidJob)
}

func TestAlgorithmValidate(t *testing.T) {
	inline := &AlgorithmMeta{
		RawCode:   "print(1)",
		Language:  "python",
		Container: Container{Entrypoint: "python $ALGO", Image: "python", Tag: "3.9"},
	}

	testCases := []struct {
		name    string
		algo    Algorithm
		wantErr bool
	}{
		{name: "published algorithm", algo: Algorithm{DID: testDID}},
		{name: "inline algorithm", algo: Algorithm{Meta: inline}},
		{name: "neither", algo: Algorithm{}, wantErr: true},
		{name: "both", algo: Algorithm{DID: testDID, Meta: inline}, wantErr: true},
		{name: "bad did", algo: Algorithm{DID: "did:op:12"}, wantErr: true},
		{name: "no image", algo: Algorithm{Meta: &AlgorithmMeta{RawCode: "x"}}, wantErr: true},
		{name: "no code", algo: Algorithm{Meta: &AlgorithmMeta{Container: Container{Image: "python"}}}, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.algo.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidJob)
				return
			}
			assert.NoError(t, err)
		})
	}
}
