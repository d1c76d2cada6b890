package domain

// ImportRequest is the body of the paste-import preview and commit routes.
type ImportRequest struct {
	Text           string `json:"text"`
	Delimiter      string `json:"delimiter"` // ",", "\t" or "tab"
	SkipHeaderRow  bool   `json:"skipHeaderRow"`
	UpdateExisting bool   `json:"updateExisting"`
	StrictMatch    bool   `json:"strictMatch"`
	HeaderSchema   bool   `json:"headerSchema"`
}
