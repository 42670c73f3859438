// Package profile implements the influencer applicant aggregate: the
// profile model, its validation pipeline, the save lifecycle, and the
// export snapshot.
package profile

import (
	"time"

	"socialstar-core/internal/channels"
)

// US and Canadian state/province codes accepted for address_state.
var (
	USStates = []string{
		"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA", "HI", "ID", "IL", "IN", "IA", "KS", "KY",
		"LA", "ME", "MD", "MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ", "NM", "NY", "NC", "ND",
		"OH", "OK", "OR", "PA", "RI", "SC", "SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY", "DC",
	}
	CAStates    = []string{"AB", "BC", "MB", "NB", "NL", "NT", "NS", "NU", "ON", "PE", "QC", "SK", "YT"}
	ValidStates = append(append([]string{}, USStates...), CAStates...)
)

// BlogCategories is the allowed set for the blog channel's categories list.
var BlogCategories = []string{
	"Lifestyle",
	"Parenting",
	"Beauty",
	"Fashion",
	"Foodie",
	"Tech",
	"Health/Fitness",
	"Home/Design",
	"Craft/DIY",
	"Finance/Business",
	"Music/Entertainment",
	"Cars/Auto",
	"Travel",
	"Pets",
	"Bridal/Event",
	"Vlogging",
	"Other",
}

var (
	Genders        = []string{"Male", "Female"}
	PaymentMethods = []string{"ZipMark", "PayPal"}
)

// DefaultPaymentMethod is assigned to newly created profiles.
const DefaultPaymentMethod = "ZipMark"

// Profile is the applicant aggregate root. The ID is assigned by the
// persistence collaborator on first save.
type Profile struct {
	ID string

	FirstName string
	LastName  string
	Gender    string
	Email     string

	// RawDateOfBirth holds the untransformed MM/DD/YYYY input; the
	// parse rule promotes it into DateOfBirth during validation.
	RawDateOfBirth string
	DateOfBirth    *time.Time

	Ethnicity          string
	ParentingStatus    string
	RelationshipStatus string
	AddressState       string
	ZipCode            string
	CountryCode        string

	Channels channels.ChannelData

	Status        Status
	InvitationID  string
	FBUserID      string
	Provider      string
	AccessTokens  map[string]map[string]string
	Password      string
	PaymentMethod string

	TermsAccepted   bool
	HasSeenTutorial bool
	Admin           bool
	Verified        bool

	Notes            string
	ReferralURL      string
	MixpanelMemberID string
	CrowdtapMemberID string

	persisted       bool
	committedStatus Status
}

// New returns a Profile with the documented defaults applied.
func New() *Profile {
	return &Profile{
		Status:        StatusPending,
		PaymentMethod: DefaultPaymentMethod,
		TermsAccepted: true,
		CountryCode:   "US",
		Channels:      channels.ChannelData{},
		AccessTokens:  map[string]map[string]string{},
	}
}

// Persisted reports whether the profile has been committed at least once.
func (p *Profile) Persisted() bool {
	return p.persisted
}

// CommittedStatus returns the status as of the last commit.
func (p *Profile) CommittedStatus() Status {
	return p.committedStatus
}

// MarkCommitted records a successful commit. Called by the lifecycle
// coordinator after each save and by the store when rehydrating a row.
func (p *Profile) MarkCommitted() {
	p.persisted = true
	p.committedStatus = p.Status
}

// AgeInYears returns whole years since date of birth. The second return
// is false when the date of birth is unset.
func (p *Profile) AgeInYears() (int, bool) {
	return p.ageAt(time.Now())
}

func (p *Profile) ageAt(now time.Time) (int, bool) {
	if p.DateOfBirth == nil {
		return 0, false
	}
	days := int(now.Sub(*p.DateOfBirth).Hours() / 24)
	return days / 365, true
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
