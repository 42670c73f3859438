package profile

import (
	"context"
	"strings"
	"time"

	stderrors "socialstar-core/internal/common/errors"
	"socialstar-core/internal/common/logger"
	"socialstar-core/internal/common/metrics"
	"socialstar-core/internal/invitation"
)

// countFields are the numeric-as-string channel fields normalized on
// first persistence.
var countFields = []string{"visitors", "subscribers", "followers"}

// InvitationService creates and resolves invitations.
type InvitationService interface {
	Create(ctx context.Context) (*invitation.Invitation, error)
	// FindByCode returns nil when the code is unknown.
	FindByCode(ctx context.Context, code string) (*invitation.Invitation, error)
}

// AnalyticsTracker emits member events to the analytics transport.
type AnalyticsTracker interface {
	Track(ctx context.Context, event string, properties map[string]interface{}) error
	MarkSeen(ctx context.Context) error
}

// TokenGenerator produces placeholder credentials.
type TokenGenerator interface {
	Generate(length int) string
}

// IdentityProviderResult is the outcome of an identity-provider
// callback consumed by ApplyIdentityProviderResult.
type IdentityProviderResult interface {
	UID() string
	Provider() string
	Credentials() map[string]string
}

// Coordinator orchestrates the save lifecycle: normalization,
// validation, the ordered hook sequence, and the side effects around
// creation and status changes.
type Coordinator struct {
	store       Store
	invitations InvitationService
	tracker     AnalyticsTracker
	tokens      TokenGenerator
	pipeline    *Pipeline
	exporter    *Exporter
	logger      logger.Logger
}

// NewCoordinator wires the coordinator's collaborators. All of them are
// injected; nothing is lazily instantiated.
func NewCoordinator(
	store Store,
	invitations InvitationService,
	tracker AnalyticsTracker,
	tokens TokenGenerator,
	pipeline *Pipeline,
	exporter *Exporter,
	log logger.Logger,
) *Coordinator {
	return &Coordinator{
		store:       store,
		invitations: invitations,
		tracker:     tracker,
		tokens:      tokens,
		pipeline:    pipeline,
		exporter:    exporter,
		logger:      log.WithFields(map[string]interface{}{"component": "lifecycle"}),
	}
}

// Save runs the full hook sequence. A non-empty FieldErrors means the
// save was rejected before any persistence; a non-nil error is a fatal
// collaborator failure.
func (c *Coordinator) Save(ctx context.Context, p *Profile) (FieldErrors, error) {
	return c.save(ctx, p, true)
}

// save is re-entered once after invitation attachment with the
// create-only hooks disabled, so count normalization and invitation
// creation never run twice.
func (c *Coordinator) save(ctx context.Context, p *Profile, runCreateHooks bool) (FieldErrors, error) {
	start := time.Now()

	// Pre-validation normalization.
	p.AddressState = strings.ToUpper(p.AddressState)

	fe, err := c.pipeline.Validate(ctx, p)
	if err != nil {
		metrics.ProfileSavesTotal.WithLabelValues("fatal").Inc()
		return nil, err
	}
	if !fe.Empty() {
		for field := range fe {
			metrics.ValidationFailuresTotal.WithLabelValues(field).Inc()
		}
		metrics.ProfileSavesTotal.WithLabelValues("rejected").Inc()
		c.logger.Warn("profile save rejected", map[string]interface{}{
			"profileId":  p.ID,
			"fieldCount": len(fe),
		})
		return fe, nil
	}

	// Pre-save: country code is always derived, never user-set.
	p.CountryCode = deriveCountryCode(p.AddressState)

	isCreate := !p.Persisted()
	if isCreate && runCreateHooks {
		stripCountSeparators(p.Channels)
	}

	prevStatus := p.CommittedStatus()

	if err := c.store.Save(ctx, p); err != nil {
		metrics.ProfileSavesTotal.WithLabelValues("fatal").Inc()
		return nil, err
	}
	p.MarkCommitted()

	if isCreate && runCreateHooks {
		inv, err := c.invitations.Create(ctx)
		if err != nil {
			return nil, stderrors.NewInvitationCreateError(err)
		}
		p.InvitationID = inv.ID
		if fe, err := c.save(ctx, p, false); err != nil || !fe.Empty() {
			return fe, err
		}
	}

	if !isCreate && p.Status != prevStatus {
		if err := c.trackStatusChange(ctx, p, prevStatus); err != nil {
			return nil, err
		}
	}

	// The attachment re-entry is part of the enclosing create; only the
	// outer call records the save.
	if !runCreateHooks {
		return FieldErrors{}, nil
	}

	metrics.ProfileSavesTotal.WithLabelValues("saved").Inc()
	operation := "update"
	if isCreate {
		operation = "create"
	}
	metrics.SaveDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	c.logger.Info("profile saved", map[string]interface{}{
		"profileId": p.ID,
		"operation": operation,
		"status":    p.Status.String(),
	})

	return FieldErrors{}, nil
}

func (c *Coordinator) trackStatusChange(ctx context.Context, p *Profile, prev Status) error {
	props := c.exporter.EventProperties(p)
	delete(props, "mp_name_tag")

	if err := c.tracker.Track(ctx, p.Status.EventName(), props); err != nil {
		return stderrors.NewAnalyticsPublishError(err)
	}
	metrics.StatusTransitionsTotal.WithLabelValues(prev.String(), p.Status.String()).Inc()
	return nil
}

// ApplyIdentityProviderResult absorbs an identity-provider callback:
// external id, provider, credentials under the provider key, a
// generated placeholder credential, and a forced accepted status, then
// persists.
func (c *Coordinator) ApplyIdentityProviderResult(ctx context.Context, p *Profile, res IdentityProviderResult) (FieldErrors, error) {
	p.FBUserID = res.UID()
	p.Provider = res.Provider()
	if p.AccessTokens == nil {
		p.AccessTokens = map[string]map[string]string{}
	}
	p.AccessTokens[res.Provider()] = res.Credentials()
	p.Password = c.tokens.Generate(20)
	p.Status = StatusAccepted
	return c.Save(ctx, p)
}

// AssignInvitationByCode attaches the invitation owning code and persists.
func (c *Coordinator) AssignInvitationByCode(ctx context.Context, p *Profile, code string) (FieldErrors, error) {
	inv, err := c.invitations.FindByCode(ctx, code)
	if err != nil {
		return nil, stderrors.NewDatabaseQueryError(err)
	}
	if inv == nil {
		return nil, stderrors.NewInvitationNotFoundError(code)
	}
	p.InvitationID = inv.ID
	return c.Save(ctx, p)
}

// ExportSnapshot builds the flattened attribute view of p.
func (c *Coordinator) ExportSnapshot(p *Profile) *Snapshot {
	return c.exporter.Snapshot(p)
}

// MarkVisited forwards a visit to the analytics collaborator.
func (c *Coordinator) MarkVisited(ctx context.Context) error {
	if err := c.tracker.MarkSeen(ctx); err != nil {
		return stderrors.NewAnalyticsPublishError(err)
	}
	return nil
}

func deriveCountryCode(addressState string) string {
	if containsString(CAStates, addressState) {
		return "CA"
	}
	return "US"
}

func stripCountSeparators(data map[string]map[string]interface{}) {
	for _, fields := range data {
		for _, name := range countFields {
			if s, ok := fields[name].(string); ok {
				fields[name] = strings.ReplaceAll(s, ",", "")
			}
		}
	}
}
