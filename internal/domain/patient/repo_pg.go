package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aliiexe/AmbuGo/internal/platform/db"
)

const foreignKeyViolation = "23503"

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (id, nom, age, cin, groupe_sanguin, numero_contact, adresse,
			hopital_id, ambulance_id, dossier_medical)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Age, p.CIN, p.BloodGroup, p.Contact, p.Address,
		p.HospitalID, p.AmbulanceID, p.Record).Scan(&p.CreatedAt, &p.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation && pgErr.ConstraintName == "patients_hopital_id_fkey" {
		return ErrUnknownHospital
	}
	return err
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	var hospitalID *uuid.UUID
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, nom, age, cin, groupe_sanguin, numero_contact, adresse,
			hopital_id, ambulance_id, dossier_medical, created_at, updated_at
		FROM patients WHERE id = $1`, id).Scan(
		&p.ID, &p.Name, &p.Age, &p.CIN, &p.BloodGroup, &p.Contact, &p.Address,
		&hospitalID, &p.AmbulanceID, &p.Record, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if hospitalID != nil {
		p.HospitalID = *hospitalID
	}
	return &p, nil
}

// ListByHospital tolerates records written without the full document shape.
func (r *patientRepoPG) ListByHospital(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Summary, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients WHERE hopital_id = $1`, hospitalID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, nom, age,
			COALESCE(dossier_medical->>'gender', 'Unknown'),
			COALESCE(dossier_medical->>'symptoms', 'No symptoms recorded'),
			COALESCE(dossier_medical->>'serviceType', 'General'),
			COALESCE((dossier_medical->>'isEmergency')::boolean, false),
			COALESCE((dossier_medical->>'requiresImmediate')::boolean, false),
			COALESCE(NULLIF(dossier_medical->>'status', ''), 'en-route'),
			created_at
		FROM patients
		WHERE hopital_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`, hospitalID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Name, &s.Age, &s.Gender, &s.Symptoms, &s.ServiceType,
			&s.IsEmergency, &s.RequiresImmediate, &s.Status, &s.SubmittedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &s)
	}
	return items, total, rows.Err()
}

func (r *patientRepoPG) SetStatus(ctx context.Context, id uuid.UUID, status string) (uuid.UUID, error) {
	var hospitalID *uuid.UUID
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patients
		SET dossier_medical = jsonb_set(COALESCE(dossier_medical, '{}'::jsonb), '{status}', to_jsonb($2::text)),
			updated_at = NOW()
		WHERE id = $1
		RETURNING hopital_id`, id, status).Scan(&hospitalID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrNotFound
	}
	if err != nil || hospitalID == nil {
		return uuid.Nil, err
	}
	return *hospitalID, nil
}
