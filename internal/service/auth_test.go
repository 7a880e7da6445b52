package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pull-events/pull-api/internal/apperr"
	"github.com/pull-events/pull-api/internal/model"
	"github.com/pull-events/pull-api/internal/utils"
)

func newAuthFixture(t *testing.T) (*AuthService, *utils.TokenIssuer, *memDB) {
	t.Helper()
	db := newMemDB()
	hash, err := utils.HashPassword("door-pass", bcrypt.MinCost)
	require.NoError(t, err)
	db.workers["door@pull.gt"] = model.Worker{ID: 3, OrganizationID: 1, VenueID: 2, Role: "door",
		Email: "door@pull.gt", PasswordHash: hash, FirstName: "Luis", LastName: "Pérez"}
	deleted := time.Now()
	db.workers["gone@pull.gt"] = model.Worker{ID: 4, Email: "gone@pull.gt", PasswordHash: hash, DeletedAt: &deleted}
	tokens := utils.NewTokenIssuer("secret", "pull-api-greenlock", time.Hour, time.Hour)
	return NewAuthService(nil, fakeWorkers{db}, tokens, testCodec(t), discardLogger()), tokens, db
}

func TestStaffLogin(t *testing.T) {
	svc, tokens, _ := newAuthFixture(t)
	c := testCodec(t)

	res, err := svc.Login(context.Background(), "door@pull.gt", "door-pass")
	require.NoError(t, err)
	assert.Equal(t, "Luis Pérez", res.Name)
	assert.Equal(t, c.EncodeID(2), res.VenueID)

	claims, err := tokens.ParseStaff(res.Token.Token)
	require.NoError(t, err)
	id, err := StaffIdentity(c, claims)
	require.NoError(t, err)
	assert.Equal(t, model.StaffIdentity{EmployeeID: 3, OrganizationID: 1, VenueID: 2, Role: "door", Email: "door@pull.gt", Name: "Luis Pérez"}, id)
}

func TestStaffLoginFailures(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	for _, tc := range []struct{ email, pass string }{
		{"door@pull.gt", "wrong"},
		{"nobody@pull.gt", "door-pass"},
		{"gone@pull.gt", "door-pass"},
	} {
		_, err := svc.Login(ctx, tc.email, tc.pass)
		assert.Equal(t, apperr.CodeInvalidCredentials, apperr.CodeOf(err), tc.email)
	}
	_, err := svc.Login(ctx, "", "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRefreshRejectsGarbage(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	_, err := svc.Refresh("garbage")
	assert.Equal(t, apperr.CodeInvalidToken, apperr.CodeOf(err))
	_, err = svc.Refresh("")
	assert.Equal(t, apperr.CodeNoToken, apperr.CodeOf(err))
}
