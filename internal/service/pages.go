package service

type Page struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Note  string `json:"note,omitempty"`
}

const (
	PagePrediction = "Prediction"
	PageInsights   = "Insights"
)

func Pages() []Page {
	return []Page{
		{Name: PagePrediction, Title: "Prediction for malicious Windows commands", Note: "Model Accuracy - up to 88%"},
		{Name: PageInsights, Title: "Model Insights"},
	}
}
