package models

// ReportWithProject is a report joined with its project's public fields.
// Used by the public read surface and the semantic index payload.
type ReportWithProject struct {
	Report
	ProjectName   string `json:"project_name"`
	Agency        string `json:"agency"`
	VendorName    string `json:"vendor_name"`
	ProjectStatus string `json:"project_status"`
}
