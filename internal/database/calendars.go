package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"appointd/internal/models"
)

// CreateCalendar links a calendar connection to a subscriber and returns it
// with its assigned id.
func (s *Store) CreateCalendar(ctx context.Context, ownerID int64, in models.CalendarIn) (models.Calendar, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO calendars (owner_id, title, url, user, password) VALUES (?, ?, ?, ?, ?)`,
		ownerID, in.Title, in.URL, in.User, in.Password)
	if err != nil {
		return models.Calendar{}, fmt.Errorf("failed to insert calendar: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Calendar{}, fmt.Errorf("failed to read calendar id: %w", err)
	}
	return s.GetCalendar(ctx, id)
}

// GetCalendar returns a calendar by id, or ErrNotFound.
func (s *Store) GetCalendar(ctx context.Context, id int64) (models.Calendar, error) {
	var cal models.Calendar
	err := s.db.GetContext(ctx, &cal, `SELECT * FROM calendars WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Calendar{}, ErrNotFound
	}
	if err != nil {
		return models.Calendar{}, fmt.Errorf("failed to get calendar: %w", err)
	}
	return cal, nil
}

// GetCalendarsBySubscriber returns all calendar connections of a
// subscriber.
func (s *Store) GetCalendarsBySubscriber(ctx context.Context, ownerID int64) ([]models.Calendar, error) {
	calendars := []models.Calendar{}
	err := s.db.SelectContext(ctx, &calendars,
		`SELECT * FROM calendars WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	return calendars, nil
}

// CalendarIsOwned reports whether the calendar belongs to the subscriber.
func (s *Store) CalendarIsOwned(ctx context.Context, id, subscriberID int64) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM calendars WHERE id = ? AND owner_id = ?`, id, subscriberID)
	if err != nil {
		return false, fmt.Errorf("failed to check calendar ownership: %w", err)
	}
	return count > 0, nil
}

// UpdateCalendar applies a partial update; nil patch fields keep their
// current value.
func (s *Store) UpdateCalendar(ctx context.Context, id int64, patch models.CalendarPatch) (models.Calendar, error) {
	current, err := s.GetCalendar(ctx, id)
	if err != nil {
		return models.Calendar{}, err
	}
	if patch.Title != nil {
		current.Title = *patch.Title
	}
	if patch.URL != nil {
		current.URL = *patch.URL
	}
	if patch.User != nil {
		current.User = *patch.User
	}
	if patch.Password != nil {
		current.Password = *patch.Password
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE calendars SET title = ?, url = ?, user = ?, password = ? WHERE id = ?`,
		current.Title, current.URL, current.User, current.Password, id)
	if err != nil {
		return models.Calendar{}, fmt.Errorf("failed to update calendar: %w", err)
	}
	return s.GetCalendar(ctx, id)
}

// DeleteCalendar removes a calendar and returns it as it was.
func (s *Store) DeleteCalendar(ctx context.Context, id int64) (models.Calendar, error) {
	cal, err := s.GetCalendar(ctx, id)
	if err != nil {
		return models.Calendar{}, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM calendars WHERE id = ?`, id); err != nil {
		return models.Calendar{}, fmt.Errorf("failed to delete calendar: %w", err)
	}
	return cal, nil
}
