// Package storage persists applicant profiles in PostgreSQL. Channel
// data and access tokens are stored as JSONB documents.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"socialstar-core/internal/channels"
	stderrors "socialstar-core/internal/common/errors"
	"socialstar-core/internal/common/logger"
	"socialstar-core/internal/profile"

	"github.com/google/uuid"
)

const profileColumns = `
	id, first_name, last_name, gender, email, raw_date_of_birth,
	date_of_birth, ethnicity, parenting_status, relationship_status,
	address_state, zip_code, country_code, channel_data, status,
	invitation_id, fb_user_id, provider, access_tokens, password,
	payment_method, terms_accepted, has_seen_tutorial, admin, verified,
	notes, referral_url, mixpanel_member_id, crowdtap_member_id`

// ProfileStore implements the persistence collaborator on PostgreSQL.
type ProfileStore struct {
	db     *sql.DB
	logger logger.Logger
}

// NewProfileStore wires the store to a database handle.
func NewProfileStore(db *sql.DB, log logger.Logger) *ProfileStore {
	return &ProfileStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "storage"}),
	}
}

// Save commits the profile. The store assigns the ID on the first save.
func (s *ProfileStore) Save(ctx context.Context, p *profile.Profile) error {
	channelData, err := json.Marshal(p.Channels)
	if err != nil {
		return stderrors.NewDatabaseSaveError(fmt.Errorf("marshal channel data: %w", err))
	}
	tokens, err := json.Marshal(p.AccessTokens)
	if err != nil {
		return stderrors.NewDatabaseSaveError(fmt.Errorf("marshal access tokens: %w", err))
	}

	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.New().String()
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO profiles (`+profileColumns+`, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26,
			        $27, $28, $29, $30, $30)`,
			p.ID, p.FirstName, p.LastName, p.Gender, p.Email, p.RawDateOfBirth,
			nullTime(p.DateOfBirth), p.Ethnicity, p.ParentingStatus, p.RelationshipStatus,
			p.AddressState, p.ZipCode, p.CountryCode, channelData, p.Status.String(),
			nullString(p.InvitationID), nullString(p.FBUserID), p.Provider, tokens, p.Password,
			p.PaymentMethod, p.TermsAccepted, p.HasSeenTutorial, p.Admin, p.Verified,
			p.Notes, p.ReferralURL, p.MixpanelMemberID, p.CrowdtapMemberID,
			now)
		if err != nil {
			p.ID = ""
			return stderrors.NewDatabaseSaveError(err)
		}

		s.logger.Info("profile created", map[string]interface{}{
			"profileId": p.ID,
		})
		return nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE profiles SET
			first_name = $2, last_name = $3, gender = $4, email = $5,
			raw_date_of_birth = $6, date_of_birth = $7, ethnicity = $8,
			parenting_status = $9, relationship_status = $10,
			address_state = $11, zip_code = $12, country_code = $13,
			channel_data = $14, status = $15, invitation_id = $16,
			fb_user_id = $17, provider = $18, access_tokens = $19,
			password = $20, payment_method = $21, terms_accepted = $22,
			has_seen_tutorial = $23, admin = $24, verified = $25,
			notes = $26, referral_url = $27, mixpanel_member_id = $28,
			crowdtap_member_id = $29, updated_at = $30
		WHERE id = $1`,
		p.ID, p.FirstName, p.LastName, p.Gender, p.Email,
		p.RawDateOfBirth, nullTime(p.DateOfBirth), p.Ethnicity,
		p.ParentingStatus, p.RelationshipStatus,
		p.AddressState, p.ZipCode, p.CountryCode,
		channelData, p.Status.String(), nullString(p.InvitationID),
		nullString(p.FBUserID), p.Provider, tokens,
		p.Password, p.PaymentMethod, p.TermsAccepted,
		p.HasSeenTutorial, p.Admin, p.Verified,
		p.Notes, p.ReferralURL, p.MixpanelMemberID,
		p.CrowdtapMemberID, now)
	if err != nil {
		return stderrors.NewDatabaseSaveError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return stderrors.NewDatabaseSaveError(err)
	}
	// The row may have been removed out-of-band; a zero-row update must
	// not report a committed save.
	if affected == 0 {
		return stderrors.NewProfileNotFoundError(p.ID)
	}
	return nil
}

// FindByExternalID returns the profile owning the external id, or nil
// when none exists.
func (s *ProfileStore) FindByExternalID(ctx context.Context, fbUserID string) (*profile.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE fb_user_id = $1`, fbUserID)
	return s.scanProfile(row)
}

// FindByID returns the profile with the given id, or nil when none exists.
func (s *ProfileStore) FindByID(ctx context.Context, id string) (*profile.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE id = $1`, id)
	return s.scanProfile(row)
}

func (s *ProfileStore) scanProfile(row *sql.Row) (*profile.Profile, error) {
	p := profile.New()
	var (
		dob          sql.NullTime
		status       string
		invitationID sql.NullString
		fbUserID     sql.NullString
		channelData  []byte
		tokens       []byte
	)

	err := row.Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.Gender, &p.Email, &p.RawDateOfBirth,
		&dob, &p.Ethnicity, &p.ParentingStatus, &p.RelationshipStatus,
		&p.AddressState, &p.ZipCode, &p.CountryCode, &channelData, &status,
		&invitationID, &fbUserID, &p.Provider, &tokens, &p.Password,
		&p.PaymentMethod, &p.TermsAccepted, &p.HasSeenTutorial, &p.Admin, &p.Verified,
		&p.Notes, &p.ReferralURL, &p.MixpanelMemberID, &p.CrowdtapMemberID,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, stderrors.NewDatabaseQueryError(err)
	}

	if dob.Valid {
		t := dob.Time
		p.DateOfBirth = &t
	}
	p.InvitationID = invitationID.String
	p.FBUserID = fbUserID.String

	parsed, err := profile.ParseStatus(status)
	if err != nil {
		return nil, stderrors.NewDatabaseQueryError(err)
	}
	p.Status = parsed

	p.Channels = channels.ChannelData{}
	if len(channelData) > 0 {
		if err := json.Unmarshal(channelData, &p.Channels); err != nil {
			return nil, stderrors.NewDatabaseQueryError(fmt.Errorf("unmarshal channel data: %w", err))
		}
	}
	p.AccessTokens = map[string]map[string]string{}
	if len(tokens) > 0 {
		if err := json.Unmarshal(tokens, &p.AccessTokens); err != nil {
			return nil, stderrors.NewDatabaseQueryError(fmt.Errorf("unmarshal access tokens: %w", err))
		}
	}

	p.MarkCommitted()
	return p, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
