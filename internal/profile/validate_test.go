package profile

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"socialstar-core/internal/channels"
	stderrors "socialstar-core/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test doubles
// ==========================

type fakeStore struct {
	byExternalID map[string]*Profile
	findErr      error
	saveErr      error
	saveCalls    int
	nextID       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{byExternalID: map[string]*Profile{}}
}

func (s *fakeStore) Save(ctx context.Context, p *Profile) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saveCalls++
	if p.ID == "" {
		s.nextID++
		p.ID = fmt.Sprintf("profile-%d", s.nextID)
	}
	return nil
}

func (s *fakeStore) FindByExternalID(ctx context.Context, fbUserID string) (*Profile, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.byExternalID[fbUserID], nil
}

type fakeCatalog struct {
	err error
}

func (c *fakeCatalog) AllowedValues(ctx context.Context, category string) (map[string]string, error) {
	if c.err != nil {
		return nil, c.err
	}
	switch category {
	case "parenting_status":
		return map[string]string{"parent": "Parent", "not_parent": "Not a parent"}, nil
	case "relationship_status":
		return map[string]string{"single": "Single", "married": "Married"}, nil
	}
	return nil, fmt.Errorf("unknown category %q", category)
}

func newTestPipeline(store Store) *Pipeline {
	return NewPipeline(&fakeCatalog{}, store, channels.NewShapeValidator(channels.Default()))
}

func validProfile() *Profile {
	p := New()
	p.FirstName = "Jane"
	p.LastName = "Doe"
	p.Email = "jane@example.com"
	return p
}

// ==========================
// Format rules
// ==========================

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email  string
		errors int
	}{
		{"a@b.com", 0},
		{"jane.doe+tag@sub.example.co", 0},
		{"not-an-email", 1},
		{"missing@tld", 1},
		{"", 0}, // optional
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			p := New()
			p.Email = tt.email
			fe, err := newTestPipeline(newFakeStore()).Validate(context.Background(), p)
			require.NoError(t, err)
			assert.Len(t, fe["email"], tt.errors)
		})
	}
}

func TestValidateZipCode(t *testing.T) {
	tests := []struct {
		zip   string
		valid bool
	}{
		{"12345", true},
		{"A1A1A1", true},
		{"a1a 1a1", true},
		{"1234", false},
		{"123456", false},
		{"AAAAAA", false},
		{"", true}, // optional
	}

	for _, tt := range tests {
		t.Run(tt.zip, func(t *testing.T) {
			p := New()
			p.ZipCode = tt.zip
			fe, err := newTestPipeline(newFakeStore()).Validate(context.Background(), p)
			require.NoError(t, err)
			if tt.valid {
				assert.Empty(t, fe["zip_code"])
			} else {
				assert.Equal(t, []string{"not a valid zipcode"}, fe["zip_code"])
			}
		})
	}
}

// ==========================
// Inclusion rules
// ==========================

func TestValidateInclusionSets(t *testing.T) {
	tests := []struct {
		name  string
		setup func(p *Profile)
		field string
		valid bool
	}{
		{"gender allowed", func(p *Profile) { p.Gender = "Female" }, "gender", true},
		{"gender rejected", func(p *Profile) { p.Gender = "Robot" }, "gender", false},
		{"payment allowed", func(p *Profile) { p.PaymentMethod = "PayPal" }, "payment_method", true},
		{"payment rejected", func(p *Profile) { p.PaymentMethod = "Cheque" }, "payment_method", false},
		{"state allowed", func(p *Profile) { p.AddressState = "NY" }, "address_state", true},
		{"canadian state allowed", func(p *Profile) { p.AddressState = "QC" }, "address_state", true},
		{"state rejected", func(p *Profile) { p.AddressState = "ZZ" }, "address_state", false},
		{"parenting allowed", func(p *Profile) { p.ParentingStatus = "parent" }, "parenting_status", true},
		{"parenting rejected", func(p *Profile) { p.ParentingStatus = "grandparent" }, "parenting_status", false},
		{"relationship allowed", func(p *Profile) { p.RelationshipStatus = "married" }, "relationship_status", true},
		{"relationship rejected", func(p *Profile) { p.RelationshipStatus = "complicated" }, "relationship_status", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			tt.setup(p)
			fe, err := newTestPipeline(newFakeStore()).Validate(context.Background(), p)
			require.NoError(t, err)
			if tt.valid {
				assert.Empty(t, fe[tt.field])
			} else {
				assert.Len(t, fe[tt.field], 1)
			}
		})
	}
}

func TestValidateCatalogFailureIsFatal(t *testing.T) {
	p := New()
	p.ParentingStatus = "parent"

	pipeline := NewPipeline(&fakeCatalog{err: errors.New("redis down")}, newFakeStore(), nil)
	fe, err := pipeline.Validate(context.Background(), p)

	require.Error(t, err)
	assert.Nil(t, fe)
	assert.Equal(t, stderrors.ErrCodeCatalogLookupFailed, stderrors.CodeOf(err))
}

// ==========================
// Blog categories
// ==========================

func TestValidateBlogCategories(t *testing.T) {
	// The list arrives either as decoded JSON or as a string slice; the
	// rule applies to both.
	tests := []struct {
		name       string
		categories interface{}
	}{
		{"decoded json list", []interface{}{"Lifestyle", "NotARealCategory"}},
		{"string slice", []string{"Lifestyle", "NotARealCategory"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			p.Channels = channels.ChannelData{
				"blog": {"categories": tt.categories},
			}

			fe, err := newTestPipeline(newFakeStore()).Validate(context.Background(), p)
			require.NoError(t, err)

			// One aggregated error naming the invalid entry, not one per entry.
			require.Len(t, fe["social_channels"], 1)
			assert.Contains(t, fe["social_channels"][0], "NotARealCategory")
			assert.NotContains(t, fe["social_channels"][0], "Lifestyle,")
		})
	}
}

func TestValidateBlogCategoriesAllValid(t *testing.T) {
	p := New()
	p.Channels = channels.ChannelData{
		"blog": {"categories": []interface{}{"Travel", "Pets", "Other"}},
	}

	fe, err := newTestPipeline(newFakeStore()).Validate(context.Background(), p)
	require.NoError(t, err)
	assert.Empty(t, fe["social_channels"])
}

// ==========================
// Date of birth
// ==========================

func TestParseDateOfBirth(t *testing.T) {
	p := New()
	p.RawDateOfBirth = "06/15/1990"

	fe, err := newTestPipeline(newFakeStore()).Validate(context.Background(), p)
	require.NoError(t, err)
	assert.Empty(t, fe["date_of_birth"])
	require.NotNil(t, p.DateOfBirth)
	assert.Equal(t, time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC), *p.DateOfBirth)
}

func TestParseDateOfBirthInvalid(t *testing.T) {
	p := New()
	p.RawDateOfBirth = "13/45/1990"

	fe, err := newTestPipeline(newFakeStore()).Validate(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []string{"Not a valid date"}, fe["date_of_birth"])
	assert.Nil(t, p.DateOfBirth)
}

func TestMinimumAgeBoundary(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		dob   time.Time
		valid bool
	}{
		{"exactly 13 years ago passes", now.AddDate(-13, 0, 0), true},
		{"one day short of 13 fails", now.AddDate(-13, 0, 0).AddDate(0, 0, 1), false},
		{"well over 13 passes", now.AddDate(-30, 0, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			dob := tt.dob
			p.DateOfBirth = &dob

			pipeline := newTestPipeline(newFakeStore())
			pipeline.now = func() time.Time { return now }

			fe, err := pipeline.Validate(context.Background(), p)
			require.NoError(t, err)
			if tt.valid {
				assert.Empty(t, fe["date_of_birth"])
			} else {
				assert.Equal(t, []string{"You must be 13 years or older to sign up"}, fe["date_of_birth"])
			}
		})
	}
}

// ==========================
// External id uniqueness
// ==========================

func TestExternalIDUniqueness(t *testing.T) {
	store := newFakeStore()
	other := validProfile()
	other.ID = "profile-other"
	other.FBUserID = "fb-123"
	store.byExternalID["fb-123"] = other

	p := validProfile()
	p.FBUserID = "fb-123"

	fe, err := newTestPipeline(store).Validate(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []string{"Facebook account is already registered"}, fe["fb_user_id"])
}

func TestExternalIDUniquenessSelfMatch(t *testing.T) {
	store := newFakeStore()
	p := validProfile()
	p.ID = "profile-1"
	p.FBUserID = "fb-123"
	store.byExternalID["fb-123"] = p

	fe, err := newTestPipeline(store).Validate(context.Background(), p)
	require.NoError(t, err)
	assert.Empty(t, fe["fb_user_id"])
}

func TestExternalIDLookupFailureIsFatal(t *testing.T) {
	store := newFakeStore()
	store.findErr = errors.New("connection refused")

	p := validProfile()
	p.FBUserID = "fb-123"

	fe, err := newTestPipeline(store).Validate(context.Background(), p)
	require.Error(t, err)
	assert.Nil(t, fe)
	assert.Equal(t, stderrors.ErrCodeUniquenessCheckFailed, stderrors.CodeOf(err))
	assert.True(t, stderrors.IsRetryable(err))
}

// Rules are independent: multiple violations accumulate.
func TestValidateAccumulatesErrors(t *testing.T) {
	p := New()
	p.Email = "not-an-email"
	p.ZipCode = "1234"
	p.Gender = "Robot"

	fe, err := newTestPipeline(newFakeStore()).Validate(context.Background(), p)
	require.NoError(t, err)
	assert.Len(t, fe, 3)
}
