package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrFlightNotFound = errors.New("flight not found")

type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	GetByFlightNo(ctx context.Context, flightNo string) (*domain.Flight, error)
	Create(ctx context.Context, flight *domain.Flight) error
	// CreateMany stores every flight or none of them.
	CreateMany(ctx context.Context, flights []domain.Flight) error
	Update(ctx context.Context, flight *domain.Flight) error
	Delete(ctx context.Context, id int64) error
	DepartingBetween(ctx context.Context, start, end time.Time) ([]domain.Flight, error)
	ByOriginAndDay(ctx context.Context, origin string, start, end time.Time) ([]domain.Flight, error)
	ByDestinationAndDay(ctx context.Context, destination string, start, end time.Time) ([]domain.Flight, error)
	ByRouteAndDay(ctx context.Context, origin, destination string, start, end time.Time) ([]domain.Flight, error)
	NextBookable(ctx context.Context, origin, destination string, after time.Time, excludeID int64) (*domain.Flight, error)
	// Cities lists every airport city served as an origin or destination.
	Cities(ctx context.Context) ([]string, error)
}

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

const flightColumns = `id, flight_no, airline_name, state, departure_time, landing_time, origin, destination,
	stops, layovers, total_cabin, rest_cabin, price_cents, duration_seconds, created_at, updated_at`

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.FlightNo, &f.AirlineName, &f.State, &f.DepartureTime, &f.LandingTime, &f.Origin, &f.Destination,
		&f.Stops, &f.Layovers, &f.TotalCabin, &f.RestCabin, &f.PriceCents, &f.DurationSeconds, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFlightNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *PGFlightRepository) query(ctx context.Context, sql string, args ...any) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	return r.query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY id`)
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return scanFlight(r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id))
}

func (r *PGFlightRepository) GetByFlightNo(ctx context.Context, flightNo string) (*domain.Flight, error) {
	return scanFlight(r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE flight_no=$1 ORDER BY departure_time DESC LIMIT 1`, flightNo))
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertFlight(ctx context.Context, q rowQuerier, f *domain.Flight) error {
	return q.QueryRow(ctx, `INSERT INTO flights (flight_no, airline_name, state, departure_time, landing_time, origin, destination,
		stops, layovers, total_cabin, rest_cabin, price_cents, duration_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`,
		f.FlightNo, f.AirlineName, f.State, f.DepartureTime, f.LandingTime, f.Origin, f.Destination,
		nonNilStrings(f.Stops), nonNilInts(f.Layovers), f.TotalCabin, f.RestCabin, f.PriceCents, f.DurationSeconds).
		Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
}

func (r *PGFlightRepository) Create(ctx context.Context, f *domain.Flight) error {
	return insertFlight(ctx, r.db, f)
}

// CreateMany inserts the flights in one transaction and fills their ids.
func (r *PGFlightRepository) CreateMany(ctx context.Context, flights []domain.Flight) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := range flights {
		if err := insertFlight(ctx, tx, &flights[i]); err != nil {
			return fmt.Errorf("store %s: %w", flights[i].FlightNo, err)
		}
	}
	return tx.Commit(ctx)
}

func (r *PGFlightRepository) Update(ctx context.Context, f *domain.Flight) error {
	err := r.db.QueryRow(ctx, `UPDATE flights SET flight_no=$2, airline_name=$3, state=$4, departure_time=$5, landing_time=$6,
		origin=$7, destination=$8, stops=$9, layovers=$10, total_cabin=$11, rest_cabin=$12, price_cents=$13,
		duration_seconds=$14, updated_at=now()
		WHERE id=$1
		RETURNING created_at, updated_at`,
		f.ID, f.FlightNo, f.AirlineName, f.State, f.DepartureTime, f.LandingTime, f.Origin, f.Destination,
		nonNilStrings(f.Stops), nonNilInts(f.Layovers), f.TotalCabin, f.RestCabin, f.PriceCents, f.DurationSeconds).
		Scan(&f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrFlightNotFound
	}
	return err
}

func (r *PGFlightRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM flights WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrFlightNotFound
	}
	return nil
}

func (r *PGFlightRepository) DepartingBetween(ctx context.Context, start, end time.Time) ([]domain.Flight, error) {
	return r.query(ctx, `SELECT `+flightColumns+` FROM flights
		WHERE departure_time >= $1 AND departure_time <= $2 ORDER BY departure_time, id`, start, end)
}

func (r *PGFlightRepository) ByOriginAndDay(ctx context.Context, origin string, start, end time.Time) ([]domain.Flight, error) {
	return r.query(ctx, `SELECT `+flightColumns+` FROM flights
		WHERE origin=$1 AND departure_time >= $2 AND departure_time < $3 ORDER BY departure_time, id`, origin, start, end)
}

func (r *PGFlightRepository) ByDestinationAndDay(ctx context.Context, destination string, start, end time.Time) ([]domain.Flight, error) {
	return r.query(ctx, `SELECT `+flightColumns+` FROM flights
		WHERE destination=$1 AND departure_time >= $2 AND departure_time < $3 ORDER BY departure_time, id`, destination, start, end)
}

func (r *PGFlightRepository) ByRouteAndDay(ctx context.Context, origin, destination string, start, end time.Time) ([]domain.Flight, error) {
	return r.query(ctx, `SELECT `+flightColumns+` FROM flights
		WHERE origin=$1 AND destination=$2 AND departure_time >= $3 AND departure_time < $4 ORDER BY departure_time, id`,
		origin, destination, start, end)
}

func (r *PGFlightRepository) NextBookable(ctx context.Context, origin, destination string, after time.Time, excludeID int64) (*domain.Flight, error) {
	return scanFlight(r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights
		WHERE origin=$1 AND destination=$2 AND departure_time >= $3 AND id <> $4 AND state=$5 AND rest_cabin > 0
		ORDER BY departure_time, id LIMIT 1`, origin, destination, after, excludeID, domain.FlightStateBooking))
}

func (r *PGFlightRepository) Cities(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT origin FROM flights UNION SELECT destination FROM flights ORDER BY 1`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilInts(s []int64) []int64 {
	if s == nil {
		return []int64{}
	}
	return s
}

var _ FlightRepository = (*PGFlightRepository)(nil)
