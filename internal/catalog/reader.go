package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/domain"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/utils"
)

var ErrMalformedRecord = errors.New("航班记录格式错误")

const fieldsPerRecord = 5

// ReadFlights 读取 "出发地,目的地,HH:MM,HH:MM,价格" 格式的航班列表
// 格式错误的记录会被跳过，并以 ErrMalformedRecord 的形式收集到 skipped 中返回
func ReadFlights(r io.Reader) (flights []*domain.Flight, skipped []error, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // 字段数量由下面自行检查，避免整个文件读取失败
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped = append(skipped, fmt.Errorf("%w: 第 %d 行: %v", ErrMalformedRecord, parseErr.Line, parseErr.Err))
				continue
			}
			return nil, nil, err
		}

		line, _ := reader.FieldPos(0)
		flight, err := parseRecord(record)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("%w: 第 %d 行: %v", ErrMalformedRecord, line, err))
			continue
		}

		flights = append(flights, flight)
	}

	return flights, skipped, nil
}

func ReadFlightsFile(path string) ([]*domain.Flight, []error, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	return ReadFlights(file)
}

func parseRecord(record []string) (*domain.Flight, error) {
	if len(record) != fieldsPerRecord {
		return nil, fmt.Errorf("需要 %d 个字段，实际为 %d 个", fieldsPerRecord, len(record))
	}

	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}

	price, err := strconv.Atoi(record[4])
	if err != nil {
		return nil, fmt.Errorf("价格 %q 不是整数", record[4])
	}

	flight := &domain.Flight{
		Origin:      record[0],
		Destination: record[1],
		Departure:   record[2],
		Arrival:     record[3],
		Price:       price,
	}
	if err := utils.ValidateFlight(flight); err != nil {
		return nil, err
	}

	return flight, nil
}
