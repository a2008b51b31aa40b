package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMarketDomain(t *testing.T) {
	tests := []struct {
		name    string
		domain  string
		wantErr bool
	}{
		{"simple word", "Tech", false},
		{"with hyphen and digits", "Tech-2025", false},
		{"with spaces", "General Technology", false},
		{"punctuation rejected", "Tech!!", true},
		{"empty rejected", "", true},
		{"whitespace only rejected", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMarketDomain(tt.domain)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{"valid query", "ai market", false},
		{"empty allowed", "", false},
		{"too short rejected", "ab", true},
		{"exactly three chars", "abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuery(tt.query)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewAnalysisState(t *testing.T) {
	state, err := NewAnalysisState("state_1", "EdTech", "AI tutoring adoption", "", "user_1")
	require.NoError(t, err)

	assert.Equal(t, "state_1", state.ID)
	assert.Equal(t, "EdTech", state.MarketDomain)
	assert.Equal(t, "AI tutoring adoption", state.Query)
	assert.NotNil(t, state.RawDocuments)
	assert.NotNil(t, state.DownloadFiles)
	assert.False(t, state.CreatedAt.IsZero())
}

func TestNewAnalysisState_InvalidInputs(t *testing.T) {
	_, err := NewAnalysisState("state_1", "Tech!!", "ai market", "", "")
	assert.Error(t, err)

	_, err = NewAnalysisState("state_1", "Tech", "ab", "", "")
	assert.Error(t, err)
}

func TestAnalysisState_QueryOrDomain(t *testing.T) {
	state, err := NewAnalysisState("state_1", "FinTech", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "FinTech", state.QueryOrDomain())

	require.NoError(t, state.SetQuery("payments adoption"))
	assert.Equal(t, "payments adoption", state.QueryOrDomain())
}

func TestAnalysisState_RegisterDownload(t *testing.T) {
	state := &AnalysisState{}
	state.RegisterDownload("final_report", "/tmp/report.md")
	assert.Equal(t, "/tmp/report.md", state.DownloadFiles["final_report"])
}
