// Package auth resolves the acting subscriber for a request. Real session
// handling has not landed yet, so every request is bound to a fixed admin
// subscriber, created on first use.
package auth

import (
	"context"
	"errors"
	"log/slog"

	"appointd/internal/database"
	"appointd/internal/models"
)

const (
	adminUsername = "admin"
	adminEmail    = "admin@example.com"
	adminLevel    = 2
)

// Resolver binds requests to their subscriber account.
type Resolver struct {
	logger *slog.Logger
	store  *database.Store
}

// NewResolver creates a resolver backed by the given store.
func NewResolver(logger *slog.Logger, store *database.Store) *Resolver {
	return &Resolver{logger: logger, store: store}
}

// Subscriber returns the acting subscriber, creating the admin account if
// it does not exist yet.
func (r *Resolver) Subscriber(ctx context.Context) (models.Subscriber, error) {
	sub, err := r.store.GetSubscriberByUsername(ctx, adminUsername)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return models.Subscriber{}, err
	}
	r.logger.Info("Creating initial admin subscriber")
	return r.store.CreateSubscriber(ctx, models.SubscriberIn{
		Username: adminUsername,
		Email:    adminEmail,
		Level:    adminLevel,
	})
}
