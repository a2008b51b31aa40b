package models

// PipelineResult is the terminal outcome of a pipeline run. Success is false
// only for pipeline-fatal failures; stage-level degradation substitutes
// default content and still yields a successful result.
type PipelineResult struct {
	StateID         string            `json:"state_id"`
	Success         bool              `json:"success"`
	ReportDir       string            `json:"report_dir,omitempty"`
	ReportFilename  string            `json:"report_filename,omitempty"`
	ChartFilenames  []string          `json:"chart_filenames"`
	DataJSONName    string            `json:"data_json_filename,omitempty"`
	DataCSVName     string            `json:"data_csv_filename,omitempty"`
	ReadmeFilename  string            `json:"readme_filename,omitempty"`
	IndexDirname    string            `json:"index_dirname,omitempty"`
	Answer          string            `json:"answer,omitempty"`
	DownloadFiles   map[string]string `json:"download_files,omitempty"`
	Error           string            `json:"error,omitempty"`
}

// DownloadInfo describes the downloadable artifacts of a persisted state.
type DownloadInfo struct {
	StateID      string         `json:"state_id"`
	Query        string         `json:"query"`
	MarketDomain string         `json:"market_domain"`
	CreatedAt    string         `json:"created_at"`
	Files        []DownloadFile `json:"files"`
}

// DownloadFile is one downloadable artifact entry.
type DownloadFile struct {
	Category    string `json:"category"`
	Filename    string `json:"filename"`
	Description string `json:"description"`
}
