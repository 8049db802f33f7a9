package seed

import (
	"log/slog"

	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/catalog"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/repository"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/utils"
)

const DefaultFlightsFile = "./internal/seed/data/flights.txt"

// SeedRandomFlights 为每个城市插入 perRoute 个飞往枢纽和 perRoute 个从枢纽返回的随机航班
func SeedRandomFlights(r *repository.Repository, cities []string, hub string, perRoute int) {
	flights := utils.GenerateRandomCatalog(cities, hub, perRoute)

	inserted, err := r.InsertFlights(flights)
	if err != nil {
		slog.Error("插入随机航班失败", "error", err)
		return
	}

	// 随机生成的航班可能和已有航班重复，重复的会被忽略
	slog.Info("插入随机航班成功", "generated", len(flights), "inserted", inserted)
}

// SeedFlightsFromFile 导入航班文件，格式错误的行会被跳过
func SeedFlightsFromFile(r *repository.Repository, path string) {
	flights, skipped, err := catalog.ReadFlightsFile(path)
	if err != nil {
		slog.Error("读取航班文件失败", "path", path, "error", err)
		return
	}

	for _, err := range skipped {
		slog.Warn("跳过格式错误的记录", "error", err)
	}

	if len(flights) == 0 {
		slog.Error("文件中没有可以导入的航班", "path", path)
		return
	}

	inserted, err := r.InsertFlights(flights)
	if err != nil {
		slog.Error("插入航班失败", "error", err)
		return
	}

	slog.Info("导入航班成功", "read", len(flights), "skipped", len(skipped), "inserted", inserted)
}
