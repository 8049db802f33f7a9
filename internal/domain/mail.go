package domain

type OptimizationCompletedMailData struct {
	RunID      int64      `json:"runID"`
	Status     string     `json:"status"`
	Itinerary  *Itinerary `json:"itinerary"`
	Error      string     `json:"error"`
	Generation int        `json:"generation"`
}
