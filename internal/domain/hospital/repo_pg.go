package hospital

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aliiexe/AmbuGo/internal/platform/db"
)

const uniqueViolation = "23505"

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func connFor(ctx context.Context, pool *pgxpool.Pool) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// -- Hospitals --

type hospitalRepoPG struct{ pool *pgxpool.Pool }

func NewHospitalRepoPG(pool *pgxpool.Pool) HospitalRepository {
	return &hospitalRepoPG{pool: pool}
}

func (r *hospitalRepoPG) conn(ctx context.Context) queryable { return connFor(ctx, r.pool) }

const hospitalCols = `id, user_id, nom, adresse, latitude, longitude,
	capacite_totale, lits_disponibles, numero_contact,
	bloc_urgence_disponible, pediatrique, created_at, updated_at`

func (r *hospitalRepoPG) scanRow(row pgx.Row) (*Hospital, error) {
	var h Hospital
	err := row.Scan(&h.ID, &h.UserID, &h.Name, &h.Address, &h.Latitude, &h.Longitude,
		&h.TotalBeds, &h.AvailableBeds, &h.Contact,
		&h.HasEmergencyBlock, &h.Pediatric, &h.CreatedAt, &h.UpdatedAt)
	return &h, err
}

func (r *hospitalRepoPG) Create(ctx context.Context, h *Hospital) error {
	h.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO hopitaux (id, user_id, nom, adresse, latitude, longitude,
			capacite_totale, lits_disponibles, numero_contact,
			bloc_urgence_disponible, pediatrique)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at, updated_at`,
		h.ID, h.UserID, h.Name, h.Address, h.Latitude, h.Longitude,
		h.TotalBeds, h.AvailableBeds, h.Contact,
		h.HasEmergencyBlock, h.Pediatric).Scan(&h.CreatedAt, &h.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrAlreadyRegistered
	}
	return err
}

func (r *hospitalRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	h, err := r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+hospitalCols+` FROM hopitaux WHERE id = $1`, id))
	return h, notFound(err)
}

func (r *hospitalRepoPG) GetByUserID(ctx context.Context, userID string) (*Hospital, error) {
	h, err := r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+hospitalCols+` FROM hopitaux WHERE user_id = $1 LIMIT 1`, userID))
	return h, notFound(err)
}

func (r *hospitalRepoPG) Update(ctx context.Context, h *Hospital) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE hopitaux SET capacite_totale=$2, lits_disponibles=$3, numero_contact=$4,
			bloc_urgence_disponible=$5, pediatrique=$6, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		h.ID, h.TotalBeds, h.AvailableBeds, h.Contact,
		h.HasEmergencyBlock, h.Pediatric).Scan(&h.UpdatedAt)
	return notFound(err)
}

func (r *hospitalRepoPG) ListLocated(ctx context.Context) ([]*Hospital, error) {
	return r.list(ctx, `SELECT `+hospitalCols+` FROM hopitaux ORDER BY created_at, id`)
}

func (r *hospitalRepoPG) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Hospital, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	return r.list(ctx, `SELECT `+hospitalCols+` FROM hopitaux WHERE id = ANY($1::uuid[])`, keys)
}

func (r *hospitalRepoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Hospital, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Hospital
	for rows.Next() {
		h, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, h)
	}
	return items, rows.Err()
}

// -- Doctors, equipment, medications --

type resourceRepoPG struct{ pool *pgxpool.Pool }

func NewResourceRepoPG(pool *pgxpool.Pool) ResourceRepository {
	return &resourceRepoPG{pool: pool}
}

func (r *resourceRepoPG) conn(ctx context.Context) queryable { return connFor(ctx, r.pool) }

func (r *resourceRepoPG) ListDoctors(ctx context.Context, hospitalID uuid.UUID) ([]*Doctor, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, hopital_id, nom, specialite, numero_contact, created_at
		FROM medecins WHERE hopital_id = $1 ORDER BY created_at, id`, hospitalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.HospitalID, &d.Name, &d.Specialty, &d.Contact, &d.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &d)
	}
	return items, rows.Err()
}

func (r *resourceRepoPG) ListEquipment(ctx context.Context, hospitalID uuid.UUID) ([]*Equipment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, hopital_id, nom, description, quantite_totale, quantite_disponible, created_at
		FROM equipements_medicaux WHERE hopital_id = $1 ORDER BY created_at, id`, hospitalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Equipment
	for rows.Next() {
		var eq Equipment
		if err := rows.Scan(&eq.ID, &eq.HospitalID, &eq.Name, &eq.Description,
			&eq.TotalQuantity, &eq.AvailableQuantity, &eq.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &eq)
	}
	return items, rows.Err()
}

func (r *resourceRepoPG) ListMedications(ctx context.Context, hospitalID uuid.UUID) ([]*Medication, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, hopital_id, nom, description, quantite_disponible, date_expiration, created_at
		FROM medicaments WHERE hopital_id = $1 ORDER BY created_at, id`, hospitalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Medication
	for rows.Next() {
		var m Medication
		if err := rows.Scan(&m.ID, &m.HospitalID, &m.Name, &m.Description,
			&m.AvailableQuantity, &m.ExpiresOn, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &m)
	}
	return items, rows.Err()
}

func (r *resourceRepoPG) AddDoctor(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medecins (id, hopital_id, nom, specialite, numero_contact)
		VALUES ($1,$2,$3,$4,$5) RETURNING created_at`,
		d.ID, d.HospitalID, d.Name, d.Specialty, d.Contact).Scan(&d.CreatedAt)
}

func (r *resourceRepoPG) AddEquipment(ctx context.Context, eq *Equipment) error {
	eq.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO equipements_medicaux (id, hopital_id, nom, description, quantite_totale, quantite_disponible)
		VALUES ($1,$2,$3,$4,$5,$6) RETURNING created_at`,
		eq.ID, eq.HospitalID, eq.Name, eq.Description, eq.TotalQuantity, eq.AvailableQuantity).Scan(&eq.CreatedAt)
}

func (r *resourceRepoPG) AddMedication(ctx context.Context, m *Medication) error {
	m.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medicaments (id, hopital_id, nom, description, quantite_disponible, date_expiration)
		VALUES ($1,$2,$3,$4,$5,$6) RETURNING created_at`,
		m.ID, m.HospitalID, m.Name, m.Description, m.AvailableQuantity, m.ExpiresOn).Scan(&m.CreatedAt)
}

func (r *resourceRepoPG) deleteOwned(ctx context.Context, table string, hospitalID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM `+pgx.Identifier{table}.Sanitize()+` WHERE id = $1 AND hopital_id = $2`, id, hospitalID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrResourceNotFound
	}
	return nil
}

func (r *resourceRepoPG) DeleteDoctor(ctx context.Context, hospitalID, id uuid.UUID) error {
	return r.deleteOwned(ctx, "medecins", hospitalID, id)
}

func (r *resourceRepoPG) DeleteEquipment(ctx context.Context, hospitalID, id uuid.UUID) error {
	return r.deleteOwned(ctx, "equipements_medicaux", hospitalID, id)
}

func (r *resourceRepoPG) DeleteMedication(ctx context.Context, hospitalID, id uuid.UUID) error {
	return r.deleteOwned(ctx, "medicaments", hospitalID, id)
}
