package queue

import (
    "bytes"
    "encoding/json"
    "io"
    "log/slog"
    "os"
    "path/filepath"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestWriteLineProcessedIncludesPreviousGuests(t *testing.T) {
    var buf bytes.Buffer
    ev := BookingEvent{
        Type:           BookingModificationsProcessed,
        BookingID:      "ab12",
        VenueID:        "cd34",
        Status:         "confirmed",
        Guests:         4,
        PreviousGuests: 5,
        OccurredAt:     time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
    }
    require.NoError(t, WriteLine(&buf, ev))
    assert.Equal(t,
        "[2025-05-01T12:00:00Z] booking.modifications_processed | booking=ab12 | venue=cd34 | status=confirmed | guests=4 | previous_guests=5\n",
        buf.String())
}

func TestHandleAppendsToLogFile(t *testing.T) {
    path := filepath.Join(t.TempDir(), "logs", "booking.log")
    c := NewConsumer("", path, slog.New(slog.NewTextHandler(io.Discard, nil)))

    body, err := json.Marshal(BookingEvent{Type: BookingRequested, BookingID: "x", Status: "pending", Guests: 3})
    require.NoError(t, err)
    require.NoError(t, c.handle(body))
    require.NoError(t, c.handle(body))

    data, err := os.ReadFile(path)
    require.NoError(t, err)
    assert.Equal(t, 2, bytes.Count(data, []byte("\n")))
    assert.Contains(t, string(data), "booking.requested | booking=x")
}

func TestHandleRejectsGarbage(t *testing.T) {
    c := NewConsumer("", filepath.Join(t.TempDir(), "b.log"), slog.New(slog.NewTextHandler(io.Discard, nil)))
    assert.Error(t, c.handle([]byte("{not json")))
}
