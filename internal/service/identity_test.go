package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveIsIdempotentAndRefreshesEmail(t *testing.T) {
	db := newMemDB()
	c := testCodec(t)
	r := NewIdentityResolver(fakePersons{db}, c, "salt")
	ctx := context.Background()

	in := PersonInput{DPI: "1234567890101", Name: "Ana", Surname: "López", Email: "ana@example.com"}
	first, err := r.Resolve(ctx, nil, in)
	require.NoError(t, err)
	second, err := r.Resolve(ctx, nil, in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 0, db.emailWrites, "unchanged email is not rewritten")

	in.Email = "ana@new.example.com"
	third, err := r.Resolve(ctx, nil, in)
	require.NoError(t, err)
	assert.Equal(t, first, third)
	assert.Equal(t, 1, db.emailWrites)
	assert.Equal(t, "ana@new.example.com", db.persons[first].Email)

	in.Email = "Ana@New.Example.com"
	_, err = r.Resolve(ctx, nil, in)
	require.NoError(t, err)
	assert.Equal(t, 2, db.emailWrites, "a case change is still a change")
	assert.Equal(t, "Ana@New.Example.com", db.persons[first].Email)

	p := db.persons[first]
	assert.Equal(t, r.HashDPI("1234567890101"), p.DPIHashed)
	dpi, err := c.DecodeString(p.DPIEncrypted)
	require.NoError(t, err)
	assert.Equal(t, "1234567890101", dpi)
}

func TestHashDPIDependsOnSalt(t *testing.T) {
	c := testCodec(t)
	a := NewIdentityResolver(nil, c, "one").HashDPI("1234567890101")
	b := NewIdentityResolver(nil, c, "two").HashDPI("1234567890101")
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
