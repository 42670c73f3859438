package storage

import (
	"context"
	"errors"
	"testing"

	"socialstar-core/internal/channels"
	stderrors "socialstar-core/internal/common/errors"
	"socialstar-core/internal/common/logger"
	"socialstar-core/internal/profile"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var profileColumnNames = []string{
	"id", "first_name", "last_name", "gender", "email", "raw_date_of_birth",
	"date_of_birth", "ethnicity", "parenting_status", "relationship_status",
	"address_state", "zip_code", "country_code", "channel_data", "status",
	"invitation_id", "fb_user_id", "provider", "access_tokens", "password",
	"payment_method", "terms_accepted", "has_seen_tutorial", "admin", "verified",
	"notes", "referral_url", "mixpanel_member_id", "crowdtap_member_id",
}

func newStoreWithMock(t *testing.T) (*ProfileStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewProfileStore(db, logger.NewNoOpLogger()), mock
}

func TestSaveInsertAssignsID(t *testing.T) {
	store, mock := newStoreWithMock(t)

	mock.ExpectExec("INSERT INTO profiles").
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := profile.New()
	p.Email = "jane@example.com"

	err := store.Save(context.Background(), p)
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveInsertFailureResetsID(t *testing.T) {
	store, mock := newStoreWithMock(t)

	mock.ExpectExec("INSERT INTO profiles").
		WillReturnError(errors.New("duplicate key"))

	p := profile.New()
	err := store.Save(context.Background(), p)

	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeDatabaseSaveFailed, stderrors.CodeOf(err))
	// A failed insert leaves the profile unidentified so the next save
	// retries as a create.
	assert.Empty(t, p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveUpdate(t *testing.T) {
	store, mock := newStoreWithMock(t)

	mock.ExpectExec("UPDATE profiles SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := profile.New()
	p.ID = "profile-1"
	p.Email = "jane@example.com"

	err := store.Save(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "profile-1", p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveUpdateMissingRow(t *testing.T) {
	store, mock := newStoreWithMock(t)

	mock.ExpectExec("UPDATE profiles SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	p := profile.New()
	p.ID = "profile-gone"

	err := store.Save(context.Background(), p)
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeProfileNotFound, stderrors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDFound(t *testing.T) {
	store, mock := newStoreWithMock(t)

	rows := sqlmock.NewRows(profileColumnNames).AddRow(
		"profile-1", "Jane", "Doe", "Female", "jane@example.com", "06/15/1990",
		nil, "", "parent", "married",
		"NY", "10001", "US", []byte(`{"twitter":{"followers":"5000"}}`), "approved",
		"inv-1", "fb-123", "facebook", []byte(`{"facebook":{"token":"tok"}}`), "secret",
		"PayPal", true, false, false, false,
		"", "", "mp-42", "",
	)
	mock.ExpectQuery("SELECT (.+) FROM profiles").
		WithArgs("profile-1").
		WillReturnRows(rows)

	p, err := store.FindByID(context.Background(), "profile-1")
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, "profile-1", p.ID)
	assert.Equal(t, "Jane", p.FirstName)
	assert.Equal(t, profile.StatusApproved, p.Status)
	assert.Equal(t, "inv-1", p.InvitationID)
	assert.Equal(t, channels.ChannelData{"twitter": {"followers": "5000"}}, p.Channels)
	assert.Equal(t, map[string]string{"token": "tok"}, p.AccessTokens["facebook"])
	assert.True(t, p.Persisted())
	assert.Equal(t, profile.StatusApproved, p.CommittedStatus())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDMissing(t *testing.T) {
	store, mock := newStoreWithMock(t)

	mock.ExpectQuery("SELECT (.+) FROM profiles").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(profileColumnNames))

	p, err := store.FindByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestFindByExternalID(t *testing.T) {
	store, mock := newStoreWithMock(t)

	mock.ExpectQuery("SELECT (.+) FROM profiles").
		WithArgs("fb-123").
		WillReturnRows(sqlmock.NewRows(profileColumnNames))

	p, err := store.FindByExternalID(context.Background(), "fb-123")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDQueryFailure(t *testing.T) {
	store, mock := newStoreWithMock(t)

	mock.ExpectQuery("SELECT (.+) FROM profiles").
		WillReturnError(errors.New("connection reset"))

	_, err := store.FindByID(context.Background(), "profile-1")
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeDatabaseQueryFailed, stderrors.CodeOf(err))
}
