// Package invitation manages the invitation records created on first
// profile persistence and resolved by referral code.
package invitation

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"socialstar-core/internal/common/logger"

	"github.com/google/uuid"
)

// Invitation grants referral/access rights to one applicant.
type Invitation struct {
	ID        string
	Code      string
	CreatedAt time.Time
}

// Service is the Postgres-backed invitation collaborator.
type Service struct {
	db     *sql.DB
	logger logger.Logger
}

// NewService wires the service to a database handle.
func NewService(db *sql.DB, log logger.Logger) *Service {
	return &Service{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "invitation"}),
	}
}

// Create inserts a new invitation with a generated referral code.
func (s *Service) Create(ctx context.Context) (*Invitation, error) {
	inv := &Invitation{
		ID:        uuid.New().String(),
		Code:      newCode(),
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invitations (id, code, created_at)
		VALUES ($1, $2, $3)`,
		inv.ID, inv.Code, inv.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert invitation: %w", err)
	}

	s.logger.Info("invitation created", map[string]interface{}{
		"invitationId": inv.ID,
	})
	return inv, nil
}

// FindByCode returns the invitation owning code, or nil when unknown.
func (s *Service) FindByCode(ctx context.Context, code string) (*Invitation, error) {
	inv := &Invitation{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, code, created_at
		FROM invitations
		WHERE code = $1`, code).Scan(&inv.ID, &inv.Code, &inv.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup invitation by code: %w", err)
	}
	return inv, nil
}

// newCode derives a short uppercase referral code.
func newCode() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return strings.ToUpper(raw[:10])
}
