package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pull-events/pull-api/internal/database"
	"github.com/pull-events/pull-api/internal/model"
)

// PersonRepo stores public_users, the deduplicated identity records of
// ticket holders and reservation guests.
type PersonRepo struct{}

func NewPersonRepo() *PersonRepo { return &PersonRepo{} }

// FindByDPIHash returns the person with the given hashed DPI.
func (r *PersonRepo) FindByDPIHash(ctx context.Context, q database.Querier, hash string) (*model.Person, error) {
	const sel = `SELECT id, dpi_hashed, dpi, name, surname, email, birth_date, created_at
                 FROM public_users WHERE dpi_hashed = ? LIMIT 1`
	var p model.Person
	var birth sql.NullTime
	err := q.QueryRowContext(ctx, sel, hash).Scan(
		&p.ID, &p.DPIHashed, &p.DPIEncrypted, &p.Name, &p.Surname, &p.Email, &birth, &p.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	if birth.Valid {
		b := birth.Time
		p.BirthDate = &b
	}
	return &p, nil
}

// UpdateEmail refreshes the contact address of a person.
func (r *PersonRepo) UpdateEmail(ctx context.Context, q database.Querier, id uint64, email string) error {
	_, err := q.ExecContext(ctx, `UPDATE public_users SET email = ? WHERE id = ?`, strings.TrimSpace(email), id)
	return err
}

// InsertOrFetch inserts p and returns its ID.  When a row with the same
// dpi_hashed already exists (a concurrent first-time resolution won the
// race) the existing ID is returned instead and nothing is overwritten.
// LAST_INSERT_ID(id) makes MySQL report the existing row's ID on the
// duplicate path.
func (r *PersonRepo) InsertOrFetch(ctx context.Context, q database.Querier, p *model.Person) (uint64, error) {
	const ins = `INSERT INTO public_users (dpi_hashed, dpi, name, surname, email, birth_date)
                 VALUES (?, ?, ?, ?, ?, ?)
                 ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)`
	var birth any
	if p.BirthDate != nil {
		birth = p.BirthDate.Format("2006-01-02")
	}
	res, err := q.ExecContext(ctx, ins, p.DPIHashed, p.DPIEncrypted, p.Name, p.Surname, p.Email, birth)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	p.ID = uint64(id)
	return p.ID, nil
}
