// Package session keeps the per-upload crop flow state.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/phambaophuc/flag-avatar/internal/models"
)

var (
	ErrNotFound          = errors.New("session not found")
	ErrInvalidTransition = errors.New("invalid session transition")
)

type Action string

const (
	ActionUpload   Action = "upload"
	ActionOpenCrop Action = "open_crop"
	ActionCommit   Action = "commit"
	ActionDiscard  Action = "discard"
)

// transitions lists, per action, the states it may start from and the state it
// leads to. Discard is accepted from any state.
var transitions = map[Action]struct {
	from []models.SessionState
	to   models.SessionState
}{
	ActionUpload:   {from: []models.SessionState{models.StateEmpty}, to: models.StateUploaded},
	ActionOpenCrop: {from: []models.SessionState{models.StateUploaded, models.StateCropping, models.StateGenerated}, to: models.StateCropping},
	ActionCommit:   {from: []models.SessionState{models.StateCropping, models.StateGenerated}, to: models.StateGenerated},
	ActionDiscard: {from: []models.SessionState{
		models.StateEmpty, models.StateUploaded, models.StateCropping, models.StateGenerated,
	}, to: models.StateEmpty},
}

// Next returns the state reached by applying action in state from.
func Next(from models.SessionState, action Action) (models.SessionState, error) {
	if from == "" {
		from = models.StateEmpty
	}

	t, ok := transitions[action]
	if !ok {
		return from, fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, action)
	}
	for _, s := range t.from {
		if s == from {
			return t.to, nil
		}
	}
	return from, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, from)
}

// Store persists sessions keyed by asset id.
type Store interface {
	Get(ctx context.Context, assetID string) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context, assetID string) error
	HealthCheck(ctx context.Context) map[string]string
}
