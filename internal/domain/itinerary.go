package domain

// ItineraryLeg: 某个城市的一组往返航班，去程飞往枢纽，回程从枢纽返回
type ItineraryLeg struct {
	City        string `json:"city"`
	Outbound    Flight `json:"outbound"`
	Return      Flight `json:"return"`
	WaitMinutes int    `json:"waitMinutes"` // 在枢纽等待回程的分钟数
}

type Itinerary struct {
	Hub       string         `json:"hub"`
	Legs      []ItineraryLeg `json:"legs"`
	TotalCost int            `json:"totalCost"`
	TotalWait int            `json:"totalWait"`
	Fitness   float64        `json:"fitness"`
}
