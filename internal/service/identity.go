package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/pull-events/pull-api/internal/codec"
	"github.com/pull-events/pull-api/internal/database"
	"github.com/pull-events/pull-api/internal/model"
	"github.com/pull-events/pull-api/internal/repository"
)

// PersonInput is what a ticket holder or reservation creator tells us
// about themselves.
type PersonInput struct {
	DPI       string
	Name      string
	Surname   string
	Email     string
	BirthDate *time.Time
}

// IdentityResolver deduplicates people by a salted hash of their DPI.
type IdentityResolver struct {
	persons PersonStore
	codec   *codec.Codec
	salt    string
}

func NewIdentityResolver(persons PersonStore, c *codec.Codec, salt string) *IdentityResolver {
	return &IdentityResolver{persons: persons, codec: c, salt: salt}
}

// HashDPI returns hex(sha256(dpi + salt)).
func (r *IdentityResolver) HashDPI(dpi string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(dpi) + r.salt))
	return hex.EncodeToString(sum[:])
}

// Resolve returns the ID of the person with in.DPI, creating the record on
// first sight.  An existing person's email is refreshed when a different
// non-empty one is supplied; nothing else about them changes.  Resolve is
// idempotent and may run on the pool or inside the caller's transaction.
func (r *IdentityResolver) Resolve(ctx context.Context, q database.Querier, in PersonInput) (uint64, error) {
	hash := r.HashDPI(in.DPI)
	email := strings.TrimSpace(in.Email)

	existing, err := r.persons.FindByDPIHash(ctx, q, hash)
	switch {
	case err == nil:
		if email != "" && existing.Email != email {
			if err := r.persons.UpdateEmail(ctx, q, existing.ID, email); err != nil {
				return 0, err
			}
		}
		return existing.ID, nil
	case !errors.Is(err, repository.ErrNotFound):
		return 0, err
	}

	// A concurrent first-time resolution may insert between the lookup and
	// here; InsertOrFetch then returns that row's ID.
	return r.persons.InsertOrFetch(ctx, q, &model.Person{
		DPIHashed:    hash,
		DPIEncrypted: r.codec.EncodeString(strings.TrimSpace(in.DPI)),
		Name:         strings.TrimSpace(in.Name),
		Surname:      strings.TrimSpace(in.Surname),
		Email:        email,
		BirthDate:    in.BirthDate,
	})
}
