package handler

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/catalog"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/domain"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/utils"
)

func (h *Handler) GetFlights(w http.ResponseWriter, r *http.Request) {
	var (
		flights []*domain.Flight
		err     error
	)

	if origin := r.URL.Query().Get("origin"); origin != "" {
		flights, err = h.repository.GetFlightsByOrigin(origin)
	} else {
		flights, err = h.repository.GetAllFlights()
	}
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取航班成功", flights)
}

func (h *Handler) CreateFlight(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Origin      string `json:"origin" validate:"required"`
		Destination string `json:"destination" validate:"required"`
		Departure   string `json:"departure" validate:"required"`
		Arrival     string `json:"arrival" validate:"required"`
		Price       int    `json:"price" validate:"min=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	flight := &domain.Flight{
		Origin:      req.Origin,
		Destination: req.Destination,
		Departure:   req.Departure,
		Arrival:     req.Arrival,
		Price:       req.Price,
	}

	if err := utils.ValidateFlight(flight); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreateFlight(flight); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "flights_origin_destination_departure_arrival_key":
				h.errorResponse(w, r, "航班已存在")
			case "flights_origin_destination_check":
				h.errorResponse(w, r, "出发地和目的地不能相同")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建航班成功", flight)
}

// ImportFlights 请求体为 origin,destination,HH:MM,HH:MM,price 格式的文本
// 格式错误的行会被跳过，并在响应中返回原因
func (h *Handler) ImportFlights(w http.ResponseWriter, r *http.Request) {
	flights, skipped, err := catalog.ReadFlights(r.Body)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	if len(flights) == 0 {
		h.errorResponse(w, r, "没有可以导入的航班")
		return
	}

	inserted, err := h.repository.InsertFlights(flights)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	reasons := make([]string, 0, len(skipped))
	for _, err := range skipped {
		reasons = append(reasons, err.Error())
	}

	h.successResponse(w, r, "导入航班成功", map[string]any{
		"read":     len(flights),
		"inserted": inserted,
		"skipped":  reasons,
	})
}

func (h *Handler) GetFlight(w http.ResponseWriter, r *http.Request) {
	flight := r.Context().Value(FlightCtx).(*domain.Flight)

	h.successResponse(w, r, "获取航班成功", flight)
}

func (h *Handler) DeleteFlight(w http.ResponseWriter, r *http.Request) {
	flight := r.Context().Value(FlightCtx).(*domain.Flight)

	if err := h.repository.DeleteFlight(flight.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除航班成功", nil)
}

func (h *Handler) DeleteAllFlights(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.repository.DeleteAllFlights()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除所有航班成功", map[string]any{
		"deleted": deleted,
	})
}
