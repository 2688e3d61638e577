package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrTicketNotFound = errors.New("ticket not found")

type TicketRepository interface {
	// Create stores the order, taking a seat when one is left. The stored
	// state is DONE when a seat was taken and QUEUED otherwise.
	Create(ctx context.Context, order *domain.TicketOrder) error
	// Withdraw removes the issued tickets of phone on the flight and returns
	// their seats. It reports how many tickets were removed.
	Withdraw(ctx context.Context, flightID int64, phone string) (int, error)
	ListQueued(ctx context.Context) ([]domain.TicketOrder, error)
	// Promote issues a queued order if its flight has a seat left.
	Promote(ctx context.Context, orderID int64) (bool, error)
	DeleteQueued(ctx context.Context, orderID int64) error
	PhonesByFlight(ctx context.Context, flightID int64) ([]string, error)
}

type PGTicketRepository struct {
	db *pgxpool.Pool
}

func NewTicketRepository(db *pgxpool.Pool) TicketRepository {
	return &PGTicketRepository{db: db}
}

const ticketColumns = `id, flight_id, token, phone, state, created_at, updated_at`

func (r *PGTicketRepository) Create(ctx context.Context, order *domain.TicketOrder) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	order.State = domain.TicketStateQueued
	cmd, err := tx.Exec(ctx, `UPDATE flights SET rest_cabin = rest_cabin - 1, updated_at = now() WHERE id=$1 AND rest_cabin > 0`, order.FlightID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 1 {
		order.State = domain.TicketStateDone
	}

	if err := tx.QueryRow(ctx, `INSERT INTO tickets (flight_id, token, phone, state)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`, order.FlightID, order.Token, order.Phone, order.State).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGTicketRepository) Withdraw(ctx context.Context, flightID int64, phone string) (int, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `DELETE FROM tickets WHERE flight_id=$1 AND phone=$2 AND state=$3`, flightID, phone, domain.TicketStateDone)
	if err != nil {
		return 0, err
	}
	n := int(cmd.RowsAffected())
	if n == 0 {
		return 0, ErrTicketNotFound
	}

	if _, err := tx.Exec(ctx, `UPDATE flights SET rest_cabin = LEAST(total_cabin, rest_cabin + $2), updated_at = now() WHERE id=$1`, flightID, n); err != nil {
		return 0, err
	}
	return n, tx.Commit(ctx)
}

func (r *PGTicketRepository) ListQueued(ctx context.Context) ([]domain.TicketOrder, error) {
	rows, err := r.db.Query(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE state=$1 ORDER BY created_at, id`, domain.TicketStateQueued)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.TicketOrder, 0)
	for rows.Next() {
		var o domain.TicketOrder
		if err := rows.Scan(&o.ID, &o.FlightID, &o.Token, &o.Phone, &o.State, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *PGTicketRepository) Promote(ctx context.Context, orderID int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var flightID int64
	if err := tx.QueryRow(ctx, `SELECT flight_id FROM tickets WHERE id=$1 AND state=$2 FOR UPDATE`, orderID, domain.TicketStateQueued).Scan(&flightID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrTicketNotFound
		}
		return false, err
	}

	cmd, err := tx.Exec(ctx, `UPDATE flights SET rest_cabin = rest_cabin - 1, updated_at = now() WHERE id=$1 AND rest_cabin > 0`, flightID)
	if err != nil {
		return false, err
	}
	if cmd.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := tx.Exec(ctx, `UPDATE tickets SET state=$1, updated_at=now() WHERE id=$2`, domain.TicketStateDone, orderID); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

func (r *PGTicketRepository) DeleteQueued(ctx context.Context, orderID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id=$1 AND state=$2`, orderID, domain.TicketStateQueued)
	return err
}

func (r *PGTicketRepository) PhonesByFlight(ctx context.Context, flightID int64) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT phone FROM tickets WHERE flight_id=$1 AND state=$2 ORDER BY phone`, flightID, domain.TicketStateDone)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

var _ TicketRepository = (*PGTicketRepository)(nil)
