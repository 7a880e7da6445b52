package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pull-events/pull-api/internal/database"
	"github.com/pull-events/pull-api/internal/model"
)

// WorkerRepo reads organization_workers, the staff accounts.
type WorkerRepo struct{}

func NewWorkerRepo() *WorkerRepo { return &WorkerRepo{} }

// ByEmail fetches an active (not soft deleted) worker by normalized email.
func (r *WorkerRepo) ByEmail(ctx context.Context, q database.Querier, email string) (*model.Worker, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var w model.Worker
	var role sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT w.id, w.organization_id, w.venue_id, ro.type, w.email, w.password_hash, w.first_name, w.last_name
         FROM organization_workers w
         LEFT JOIN roles ro ON ro.id = w.role
         WHERE LOWER(w.email) = ? AND w.deleted_at IS NULL
         LIMIT 1`, email).
		Scan(&w.ID, &w.OrganizationID, &w.VenueID, &role, &w.Email, &w.PasswordHash, &w.FirstName, &w.LastName)
	if err != nil {
		return nil, notFound(err)
	}
	w.Role = role.String
	return &w, nil
}
