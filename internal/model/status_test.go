package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededReservationTable() StatusTable {
	return NewStatusTable([]StatusRow{
		{ID: 1, Name: "pending"},
		{ID: 2, Name: "confirmed"},
		{ID: 3, Name: "cancelled"},
		{ID: 4, Name: "rejected"},
		{ID: 5, Name: "completed"},
		{ID: 6, Name: "modified"},
		{ID: 9, Name: "Waitlisted"},
	})
}

func TestParseReservationStatus(t *testing.T) {
	assert.Equal(t, ReservationConfirmed, ParseReservationStatus("confirmed"))
	assert.Equal(t, ReservationModified, ParseReservationStatus(" Modified "))
	assert.Equal(t, ReservationUnknown, ParseReservationStatus("waitlisted"))
	assert.Equal(t, "unknown", ReservationUnknown.String())
}

func TestStatusTableLookups(t *testing.T) {
	tbl := seededReservationTable()

	id, ok := tbl.ID("CONFIRMED")
	require.True(t, ok)
	assert.Equal(t, uint64(2), id)

	id, ok = tbl.ReservationID(ReservationModified)
	require.True(t, ok)
	assert.Equal(t, uint64(6), id)

	assert.Equal(t, ReservationPending, tbl.Reservation(1))
	assert.Equal(t, ReservationUnknown, tbl.Reservation(9))
	assert.Equal(t, ReservationUnknown, tbl.Reservation(42))

	name, ok := tbl.Name(9)
	require.True(t, ok)
	assert.Equal(t, "waitlisted", name)

	_, ok = tbl.ID("archived")
	assert.False(t, ok)
	assert.NoError(t, tbl.RequireReservations())
}

func TestRequireGuestsReportsMissingRows(t *testing.T) {
	tbl := NewStatusTable([]StatusRow{
		{ID: 2, Name: "confirmed"},
		{ID: 5, Name: "removed"},
		{ID: 6, Name: "pending_remove"},
	})
	err := tbl.RequireGuests()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pending_add")
}

func TestModifyBlockedReason(t *testing.T) {
	assert.Empty(t, ReservationConfirmed.ModifyBlockedReason())
	assert.Equal(t, "pending approval", ReservationPending.ModifyBlockedReason())
	assert.Equal(t, "already has pending modifications", ReservationModified.ModifyBlockedReason())
	assert.Equal(t, "unknown", ReservationUnknown.ModifyBlockedReason())
	assert.True(t, ReservationCompleted.Terminal())
	assert.False(t, ReservationModified.Terminal())
}

func TestGuestDisplayName(t *testing.T) {
	uid := uint64(7)
	temp := "Ana"
	r := Reservation{CreatorID: 7}

	registered := ReservationGuest{UserID: &uid, Person: &Person{Name: "Luis", Surname: "Pérez"}}
	assert.Equal(t, "Luis Pérez", registered.DisplayName())
	assert.True(t, registered.IsCreatorOf(r))

	nameOnly := ReservationGuest{TempName: &temp}
	assert.Equal(t, "Ana", nameOnly.DisplayName())
	assert.False(t, nameOnly.IsCreatorOf(r))

	assert.Equal(t, "Unknown Guest", ReservationGuest{}.DisplayName())
}
