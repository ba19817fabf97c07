package model

type LabeledRow struct {
	Text        string `json:"text"`
	IsMalicious bool   `json:"is_malicious"`
}

type TokenCount struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}
