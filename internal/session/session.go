// Package session persists the identity behind each logged-in session.
package session

import (
	"context"
	"encoding/json"
	"errors"

	"alcyxob/material-approval/internal/domain"
	"alcyxob/material-approval/internal/kv"

	"github.com/sirupsen/logrus"
)

// ErrEmptySessionID is returned when writing without a session id.
var ErrEmptySessionID = errors.New("session id is empty")

const slotPrefix = "user:"

// Store keeps one kv slot per session, holding the JSON of a domain.User.
type Store struct {
	kv  kv.Store
	log logrus.FieldLogger
}

// NewStore creates a session store on top of slots.
func NewStore(slots kv.Store, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{kv: slots, log: log}
}

func slotKey(sid string) string {
	return slotPrefix + sid
}

// Restore returns the identity saved for sid, or nil if the session is
// logged out. An unreadable slot is discarded rather than reported.
func (s *Store) Restore(ctx context.Context, sid string) *domain.User {
	if sid == "" {
		return nil
	}
	log := s.log.WithField("sid", sid)

	raw, found, err := s.kv.Get(ctx, slotKey(sid))
	if err != nil {
		log.WithError(err).Error("read session")
		return nil
	}
	if !found {
		return nil
	}

	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil || user.Username == "" {
		log.WithError(err).Warn("discarding malformed session")
		if err := s.kv.Delete(ctx, slotKey(sid)); err != nil {
			log.WithError(err).Error("delete malformed session")
		}
		return nil
	}
	if _, err := domain.ParseRole(string(user.Role)); err != nil {
		log.WithError(err).Warn("discarding session with unknown role")
		_ = s.kv.Delete(ctx, slotKey(sid))
		return nil
	}
	return &user
}

// Set replaces the identity for sid.
func (s *Store) Set(ctx context.Context, sid string, user domain.User) error {
	if sid == "" {
		return ErrEmptySessionID
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, slotKey(sid), raw)
}

// Clear removes the identity for sid.
func (s *Store) Clear(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	return s.kv.Delete(ctx, slotKey(sid))
}
