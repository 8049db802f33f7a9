package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/domain"
)

func (r *Repository) CreateFlight(flight *domain.Flight) error {
	query := `
		INSERT INTO flights (origin, destination, departure, arrival, price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{flight.Origin, flight.Destination, flight.Departure, flight.Arrival, flight.Price}
	dst := []any{&flight.ID, &flight.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

// InsertFlights 在一个事务中批量插入航班，已经存在的航班会被忽略
// 返回实际插入的数量
func (r *Repository) InsertFlights(flights []*domain.Flight) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO flights (origin, destination, departure, arrival, price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT flights_origin_destination_departure_arrival_key DO NOTHING
		RETURNING id, created_at
	`

	inserted := 0
	for _, flight := range flights {
		args := []any{flight.Origin, flight.Destination, flight.Departure, flight.Arrival, flight.Price}
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&flight.ID, &flight.CreatedAt); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// 说明这个航班已经存在
				continue
			}
			return 0, err
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return inserted, nil
}

func (r *Repository) GetFlightByID(id int64) (*domain.Flight, error) {
	query := `
		SELECT origin, destination, departure, arrival, price, created_at
		FROM flights WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	flight := &domain.Flight{
		ID: id,
	}

	dst := []any{&flight.Origin, &flight.Destination, &flight.Departure, &flight.Arrival, &flight.Price, &flight.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return flight, nil
}

func (r *Repository) GetAllFlights() ([]*domain.Flight, error) {
	query := `
		SELECT id, origin, destination, departure, arrival, price, created_at
		FROM flights ORDER BY id
	`

	return r.queryFlights(query)
}

func (r *Repository) GetFlightsByOrigin(origin string) ([]*domain.Flight, error) {
	query := `
		SELECT id, origin, destination, departure, arrival, price, created_at
		FROM flights WHERE origin = $1 ORDER BY id
	`

	return r.queryFlights(query, origin)
}

func (r *Repository) queryFlights(query string, args ...any) ([]*domain.Flight, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := []*domain.Flight{}
	for rows.Next() {
		flight := &domain.Flight{}
		dst := []any{&flight.ID, &flight.Origin, &flight.Destination, &flight.Departure, &flight.Arrival, &flight.Price, &flight.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		flights = append(flights, flight)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return flights, nil
}

func (r *Repository) DeleteFlight(id int64) error {
	query := `DELETE FROM flights WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteAllFlights() (int64, error) {
	query := `DELETE FROM flights`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
