package database

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"appointd/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(slog.New(slog.NewTextHandler(io.Discard, nil)), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestCreateAndGetSubscriber(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	sub, err := store.CreateSubscriber(ctx, models.SubscriberIn{
		Username: "ww",
		Email:    "wonderwoman@example.com",
		Name:     strPtr("Diana"),
		Level:    2,
		Timezone: intPtr(-1),
	})
	require.NoError(t, err)
	assert.NotZero(t, sub.ID)
	assert.Equal(t, "ww", sub.Username)
	assert.Equal(t, "wonderwoman@example.com", sub.Email)
	require.NotNil(t, sub.Name)
	assert.Equal(t, "Diana", *sub.Name)
	assert.Equal(t, 2, sub.Level)
	require.NotNil(t, sub.Timezone)
	assert.Equal(t, -1, *sub.Timezone)
	assert.Equal(t, []models.Calendar{}, sub.Calendars)

	byEmail, err := store.GetSubscriberByEmail(ctx, "wonderwoman@example.com")
	require.NoError(t, err)
	assert.Equal(t, sub.ID, byEmail.ID)

	byUsername, err := store.GetSubscriberByUsername(ctx, "ww")
	require.NoError(t, err)
	assert.Equal(t, sub.ID, byUsername.ID)

	_, err = store.GetSubscriber(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateSubscriberRejected(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	_, err := store.CreateSubscriber(ctx, models.SubscriberIn{Username: "ww", Email: "ww@example.com"})
	require.NoError(t, err)
	_, err = store.CreateSubscriber(ctx, models.SubscriberIn{Username: "ww", Email: "other@example.com"})
	assert.Error(t, err)
	_, err = store.CreateSubscriber(ctx, models.SubscriberIn{Username: "other", Email: "ww@example.com"})
	assert.Error(t, err)
}

func TestUpdateSubscriberPartial(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	sub, err := store.CreateSubscriber(ctx, models.SubscriberIn{
		Username: "admin", Email: "admin@example.com", Level: 2,
	})
	require.NoError(t, err)

	updated, err := store.UpdateSubscriber(ctx, sub.ID, models.SubscriberPatch{
		Username: strPtr("adminx"),
		Name:     strPtr("The Admin"),
		Timezone: intPtr(2),
	})
	require.NoError(t, err)
	assert.Equal(t, "adminx", updated.Username)
	assert.Equal(t, "admin@example.com", updated.Email, "unpatched fields keep their value")
	require.NotNil(t, updated.Name)
	assert.Equal(t, "The Admin", *updated.Name)
	assert.Equal(t, 2, updated.Level)
	require.NotNil(t, updated.Timezone)
	assert.Equal(t, 2, *updated.Timezone)

	// A patch with a single field leaves the rest alone.
	again, err := store.UpdateSubscriber(ctx, sub.ID, models.SubscriberPatch{Username: strPtr("admin")})
	require.NoError(t, err)
	assert.Equal(t, "admin", again.Username)
	assert.Equal(t, "The Admin", *again.Name)
}

func TestCalendarLifecycle(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	sub, err := store.CreateSubscriber(ctx, models.SubscriberIn{Username: "ww", Email: "ww@example.com"})
	require.NoError(t, err)

	cal, err := store.CreateCalendar(ctx, sub.ID, models.CalendarIn{
		URL: "https://example.com", User: "ww1984", Password: "d14n4",
	})
	require.NoError(t, err)
	assert.NotZero(t, cal.ID)
	assert.Equal(t, sub.ID, cal.OwnerID)

	got, err := store.GetCalendar(ctx, cal.ID)
	require.NoError(t, err)
	assert.Equal(t, cal, got)

	list, err := store.GetCalendarsBySubscriber(ctx, sub.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ww1984", list[0].User)

	owned, err := store.CalendarIsOwned(ctx, cal.ID, sub.ID)
	require.NoError(t, err)
	assert.True(t, owned)
	owned, err = store.CalendarIsOwned(ctx, cal.ID, sub.ID+1)
	require.NoError(t, err)
	assert.False(t, owned)

	updated, err := store.UpdateCalendar(ctx, cal.ID, models.CalendarPatch{URL: strPtr("https://example.comx")})
	require.NoError(t, err)
	assert.Equal(t, "https://example.comx", updated.URL)
	assert.Equal(t, "ww1984", updated.User, "unpatched fields keep their value")

	deleted, err := store.DeleteCalendar(ctx, cal.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, deleted)

	_, err = store.GetCalendar(ctx, cal.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	list, err = store.GetCalendarsBySubscriber(ctx, sub.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSubscriberIncludesCalendars(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	sub, err := store.CreateSubscriber(ctx, models.SubscriberIn{Username: "ww", Email: "ww@example.com"})
	require.NoError(t, err)
	_, err = store.CreateCalendar(ctx, sub.ID, models.CalendarIn{URL: "https://a", User: "u", Password: "p"})
	require.NoError(t, err)

	got, err := store.GetSubscriber(ctx, sub.ID)
	require.NoError(t, err)
	require.Len(t, got.Calendars, 1)
	assert.Equal(t, "https://a", got.Calendars[0].URL)
}

func TestCreateAppointmentWithSlots(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	sub, err := store.CreateSubscriber(ctx, models.SubscriberIn{Username: "ww", Email: "ww@example.com"})
	require.NoError(t, err)
	cal, err := store.CreateCalendar(ctx, sub.ID, models.CalendarIn{URL: "https://a", User: "u", Password: "p"})
	require.NoError(t, err)

	appt, err := store.CreateAppointment(ctx,
		models.Appointment{CalendarID: cal.ID, Title: "Office hours", Duration: 30},
		[]models.Slot{
			{Start: "2024-03-01T10:00:00", Duration: 30},
			{Start: "2024-03-01T10:30:00", Duration: 30},
		})
	require.NoError(t, err)
	assert.NotZero(t, appt.ID)
	assert.Equal(t, "Office hours", appt.Title)
	require.Len(t, appt.Slots, 2)
	assert.Equal(t, appt.ID, appt.Slots[0].AppointmentID)
	assert.Equal(t, "2024-03-01T10:00:00", appt.Slots[0].Start)

	list, err := store.GetAppointmentsBySubscriber(ctx, sub.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Slots, 2)

	other, err := store.GetAppointmentsBySubscriber(ctx, sub.ID+1)
	require.NoError(t, err)
	assert.Empty(t, other)
}
