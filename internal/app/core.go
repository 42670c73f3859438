// Package app exposes the profile core's operations to outer layers:
// create/update, administrative status changes, invitation attachment,
// identity-provider registration, and export.
package app

import (
	"context"
	"time"

	stderrors "socialstar-core/internal/common/errors"
	"socialstar-core/internal/common/logger"
	"socialstar-core/internal/common/observability"
	"socialstar-core/internal/export"
	"socialstar-core/internal/notify"
	"socialstar-core/internal/profile"
	"socialstar-core/internal/storage"
)

// Core bundles the lifecycle coordinator with the side-band consumers
// that run after successful saves. Notifier and indexer are optional.
type Core struct {
	coordinator *profile.Coordinator
	store       *storage.ProfileStore
	notifier    *notify.EmailNotifier
	indexer     *export.Indexer
	obs         *observability.Observability
	logger      logger.Logger
}

func NewCore(
	coordinator *profile.Coordinator,
	store *storage.ProfileStore,
	notifier *notify.EmailNotifier,
	indexer *export.Indexer,
	obs *observability.Observability,
	log logger.Logger,
) *Core {
	return &Core{
		coordinator: coordinator,
		store:       store,
		notifier:    notifier,
		indexer:     indexer,
		obs:         obs,
		logger:      log.WithFields(map[string]interface{}{"component": "app"}),
	}
}

// SaveProfile runs the full save lifecycle and, on success, ships the
// export snapshot to the indexer.
func (c *Core) SaveProfile(ctx context.Context, p *profile.Profile) (profile.FieldErrors, error) {
	start := time.Now()
	fe, err := c.coordinator.Save(ctx, p)
	c.recordSave(ctx, start, fe, err)
	if err != nil || !fe.Empty() {
		return fe, err
	}
	c.indexSnapshot(ctx, p)
	return fe, nil
}

// ChangeStatus applies an administrative status change and persists it.
// The applicant is emailed about the new status when a notifier is
// configured; notification failures are logged, not fatal.
func (c *Core) ChangeStatus(ctx context.Context, id string, status profile.Status) (profile.FieldErrors, error) {
	p, err := c.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, stderrors.NewProfileNotFoundError(id)
	}

	p.Status = status
	start := time.Now()
	fe, err := c.coordinator.Save(ctx, p)
	c.recordSave(ctx, start, fe, err)
	if err != nil || !fe.Empty() {
		return fe, err
	}

	if c.notifier != nil {
		if err := c.notifier.SendStatusChanged(ctx, p.Email, p.FirstName, status.String()); err != nil {
			c.logger.Warn("status notification failed", map[string]interface{}{
				"profileId": p.ID,
				"error":     err,
			})
		}
	}
	c.indexSnapshot(ctx, p)
	return fe, nil
}

// RegisterFromIdentityProvider creates a profile from an
// identity-provider callback.
func (c *Core) RegisterFromIdentityProvider(ctx context.Context, p *profile.Profile, res profile.IdentityProviderResult) (profile.FieldErrors, error) {
	start := time.Now()
	fe, err := c.coordinator.ApplyIdentityProviderResult(ctx, p, res)
	c.recordSave(ctx, start, fe, err)
	if err != nil || !fe.Empty() {
		return fe, err
	}
	c.indexSnapshot(ctx, p)
	return fe, nil
}

// AttachInvitation resolves an invitation code and attaches it.
func (c *Core) AttachInvitation(ctx context.Context, id, code string) (profile.FieldErrors, error) {
	p, err := c.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, stderrors.NewProfileNotFoundError(id)
	}
	return c.coordinator.AssignInvitationByCode(ctx, p, code)
}

// ExportSnapshot returns the flattened attribute view of a profile.
func (c *Core) ExportSnapshot(p *profile.Profile) *profile.Snapshot {
	return c.coordinator.ExportSnapshot(p)
}

// MarkVisited records an applicant visit with the analytics collaborator.
func (c *Core) MarkVisited(ctx context.Context) error {
	return c.coordinator.MarkVisited(ctx)
}

func (c *Core) recordSave(ctx context.Context, start time.Time, fe profile.FieldErrors, err error) {
	if c.obs == nil {
		return
	}
	outcome := "saved"
	switch {
	case err != nil:
		outcome = "fatal"
	case !fe.Empty():
		outcome = "rejected"
	}
	c.obs.RecordSave(ctx, outcome)
	c.obs.RecordSaveDuration(ctx, time.Since(start), outcome)
}

// indexSnapshot ships the snapshot to Elasticsearch. Indexing is a
// side-band concern: failures are logged, never fatal.
func (c *Core) indexSnapshot(ctx context.Context, p *profile.Profile) {
	if c.indexer == nil {
		return
	}
	if err := c.indexer.Index(ctx, c.coordinator.ExportSnapshot(p)); err != nil {
		c.logger.Warn("snapshot indexing failed", map[string]interface{}{
			"profileId": p.ID,
			"error":     err,
		})
	}
}
