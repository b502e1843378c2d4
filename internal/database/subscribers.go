package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"appointd/internal/models"
)

// CreateSubscriber inserts a new subscriber and returns it with its
// assigned id and calendars loaded.
func (s *Store) CreateSubscriber(ctx context.Context, in models.SubscriberIn) (models.Subscriber, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO subscribers (username, email, name, level, timezone) VALUES (?, ?, ?, ?, ?)`,
		in.Username, in.Email, in.Name, in.Level, in.Timezone)
	if err != nil {
		return models.Subscriber{}, fmt.Errorf("failed to insert subscriber: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Subscriber{}, fmt.Errorf("failed to read subscriber id: %w", err)
	}
	return s.GetSubscriber(ctx, id)
}

// GetSubscriber returns a subscriber by id with its calendars loaded, or
// ErrNotFound.
func (s *Store) GetSubscriber(ctx context.Context, id int64) (models.Subscriber, error) {
	var sub models.Subscriber
	err := s.db.GetContext(ctx, &sub, `SELECT * FROM subscribers WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Subscriber{}, ErrNotFound
	}
	if err != nil {
		return models.Subscriber{}, fmt.Errorf("failed to get subscriber: %w", err)
	}
	calendars, err := s.GetCalendarsBySubscriber(ctx, id)
	if err != nil {
		return models.Subscriber{}, err
	}
	sub.Calendars = calendars
	return sub, nil
}

// GetSubscriberByEmail returns a subscriber by email, or ErrNotFound.
func (s *Store) GetSubscriberByEmail(ctx context.Context, email string) (models.Subscriber, error) {
	return s.getSubscriberBy(ctx, "email", email)
}

// GetSubscriberByUsername returns a subscriber by username, or ErrNotFound.
func (s *Store) GetSubscriberByUsername(ctx context.Context, username string) (models.Subscriber, error) {
	return s.getSubscriberBy(ctx, "username", username)
}

func (s *Store) getSubscriberBy(ctx context.Context, column, value string) (models.Subscriber, error) {
	var sub models.Subscriber
	err := s.db.GetContext(ctx, &sub, `SELECT * FROM subscribers WHERE `+column+` = ?`, value)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Subscriber{}, ErrNotFound
	}
	if err != nil {
		return models.Subscriber{}, fmt.Errorf("failed to get subscriber by %s: %w", column, err)
	}
	return s.GetSubscriber(ctx, sub.ID)
}

// UpdateSubscriber applies a partial update; nil patch fields keep their
// current value.
func (s *Store) UpdateSubscriber(ctx context.Context, id int64, patch models.SubscriberPatch) (models.Subscriber, error) {
	current, err := s.GetSubscriber(ctx, id)
	if err != nil {
		return models.Subscriber{}, err
	}
	if patch.Username != nil {
		current.Username = *patch.Username
	}
	if patch.Email != nil {
		current.Email = *patch.Email
	}
	if patch.Name != nil {
		current.Name = patch.Name
	}
	if patch.Level != nil {
		current.Level = *patch.Level
	}
	if patch.Timezone != nil {
		current.Timezone = patch.Timezone
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE subscribers SET username = ?, email = ?, name = ?, level = ?, timezone = ? WHERE id = ?`,
		current.Username, current.Email, current.Name, current.Level, current.Timezone, id)
	if err != nil {
		return models.Subscriber{}, fmt.Errorf("failed to update subscriber: %w", err)
	}
	return s.GetSubscriber(ctx, id)
}
