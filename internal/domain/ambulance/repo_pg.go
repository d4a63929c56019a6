package ambulance

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aliiexe/AmbuGo/internal/platform/db"
)

type queryable interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type ambulanceRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &ambulanceRepoPG{pool: pool}
}

func (r *ambulanceRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const ambulanceCols = `id, user_id, numero_plaque, nom_conducteur, etat, capacite, created_at`

func (r *ambulanceRepoPG) scanRow(row pgx.Row) (*Ambulance, error) {
	var a Ambulance
	err := row.Scan(&a.ID, &a.UserID, &a.PlateNumber, &a.DriverName, &a.State, &a.Capacity, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &a, err
}

func (r *ambulanceRepoPG) Create(ctx context.Context, a *Ambulance) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO ambulances (id, user_id, numero_plaque, nom_conducteur, etat, capacite)
		VALUES ($1,$2,$3,$4,$5,$6) RETURNING created_at`,
		a.ID, a.UserID, a.PlateNumber, a.DriverName, a.State, a.Capacity).Scan(&a.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyRegistered
	}
	return err
}

func (r *ambulanceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Ambulance, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+ambulanceCols+` FROM ambulances WHERE id = $1`, id))
}

func (r *ambulanceRepoPG) GetByUserID(ctx context.Context, userID string) (*Ambulance, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+ambulanceCols+` FROM ambulances WHERE user_id = $1 LIMIT 1`, userID))
}

func (r *ambulanceRepoPG) UpdateState(ctx context.Context, id uuid.UUID, state string) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE ambulances SET etat = $2 WHERE id = $1`, id, state)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
