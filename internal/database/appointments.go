package database

import (
	"context"
	"fmt"

	"appointd/internal/models"
)

// CreateAppointment inserts an appointment and its slots in one
// transaction and returns the appointment with slots loaded.
func (s *Store) CreateAppointment(ctx context.Context, appt models.Appointment, slots []models.Slot) (models.Appointment, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Appointment{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO appointments (calendar_id, title, duration) VALUES (?, ?, ?)`,
		appt.CalendarID, appt.Title, appt.Duration)
	if err != nil {
		return models.Appointment{}, fmt.Errorf("failed to insert appointment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Appointment{}, fmt.Errorf("failed to read appointment id: %w", err)
	}
	for _, slot := range slots {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO slots (appointment_id, start, duration) VALUES (?, ?, ?)`,
			id, slot.Start, slot.Duration)
		if err != nil {
			return models.Appointment{}, fmt.Errorf("failed to insert slot: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return models.Appointment{}, fmt.Errorf("failed to commit appointment: %w", err)
	}
	return s.GetAppointment(ctx, id)
}

// GetAppointment returns an appointment by id with its slots loaded, or
// ErrNotFound.
func (s *Store) GetAppointment(ctx context.Context, id int64) (models.Appointment, error) {
	var appt models.Appointment
	err := s.db.GetContext(ctx, &appt, `SELECT * FROM appointments WHERE id = ?`, id)
	if err != nil {
		return models.Appointment{}, notFoundOr(err, "failed to get appointment")
	}
	if err := s.loadSlots(ctx, &appt); err != nil {
		return models.Appointment{}, err
	}
	return appt, nil
}

// GetAppointmentsBySubscriber returns all appointments published on the
// subscriber's calendars, slots included.
func (s *Store) GetAppointmentsBySubscriber(ctx context.Context, subscriberID int64) ([]models.Appointment, error) {
	appointments := []models.Appointment{}
	err := s.db.SelectContext(ctx, &appointments,
		`SELECT a.* FROM appointments a
		 JOIN calendars c ON c.id = a.calendar_id
		 WHERE c.owner_id = ? ORDER BY a.id`, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	for i := range appointments {
		if err := s.loadSlots(ctx, &appointments[i]); err != nil {
			return nil, err
		}
	}
	return appointments, nil
}

func (s *Store) loadSlots(ctx context.Context, appt *models.Appointment) error {
	appt.Slots = []models.Slot{}
	err := s.db.SelectContext(ctx, &appt.Slots,
		`SELECT * FROM slots WHERE appointment_id = ? ORDER BY id`, appt.ID)
	if err != nil {
		return fmt.Errorf("failed to load slots: %w", err)
	}
	return nil
}
