package profile

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"socialstar-core/internal/channels"
	stderrors "socialstar-core/internal/common/errors"
)

var (
	emailPattern = regexp.MustCompile(`(?i)^[\w.%+-]+@([\w-]+\.)+\w{2,}$`)
	// Five digits, or a letter-digit-letter space? digit-letter-digit
	// postal code, case-insensitive.
	zipPattern = regexp.MustCompile(`(?i)^\d{5}$|^[a-z]\d[a-z] ?\d[a-z]\d$`)
)

const dateOfBirthLayout = "01/02/2006"

// FieldErrors accumulates per-field validation messages. A profile is
// valid iff the map is empty.
type FieldErrors map[string][]string

// Add appends a message under the field key.
func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// Empty reports whether no rule was violated.
func (fe FieldErrors) Empty() bool {
	return len(fe) == 0
}

// Store is the persistence collaborator consumed by the core.
type Store interface {
	// Save commits the profile, assigning an ID on first persistence.
	Save(ctx context.Context, p *Profile) error
	// FindByExternalID returns the profile owning the external id, or
	// nil when none exists.
	FindByExternalID(ctx context.Context, fbUserID string) (*Profile, error)
}

// OptionsCatalog supplies the externally managed code->label sets for
// parenting_status and relationship_status.
type OptionsCatalog interface {
	AllowedValues(ctx context.Context, category string) (map[string]string, error)
}

// Pipeline runs the independent validation rules. Rules never
// short-circuit: every violated rule appends its message, and the
// caller decides on the accumulated result. Infrastructure failures
// from the uniqueness lookup or the catalog surface as the second
// return value, never as field errors.
type Pipeline struct {
	catalog OptionsCatalog
	store   Store
	shapes  *channels.ShapeValidator
	now     func() time.Time
}

// NewPipeline wires the pipeline's collaborators.
func NewPipeline(catalog OptionsCatalog, store Store, shapes *channels.ShapeValidator) *Pipeline {
	return &Pipeline{
		catalog: catalog,
		store:   store,
		shapes:  shapes,
		now:     time.Now,
	}
}

// Validate runs every rule against p.
func (v *Pipeline) Validate(ctx context.Context, p *Profile) (FieldErrors, error) {
	fe := FieldErrors{}

	v.checkEmail(p, fe)
	v.checkZipCode(p, fe)
	if err := v.checkPollOption(ctx, p.ParentingStatus, "parenting_status", "Parenting status", fe); err != nil {
		return nil, err
	}
	if err := v.checkPollOption(ctx, p.RelationshipStatus, "relationship_status", "Relationship status", fe); err != nil {
		return nil, err
	}
	v.checkAddressState(p, fe)
	v.checkGender(p, fe)
	v.checkPaymentMethod(p, fe)
	v.checkChannelShapes(p, fe)
	v.checkBlogCategories(p, fe)
	v.parseDateOfBirth(p, fe)
	v.checkMinimumAge(p, fe)
	if err := v.checkExternalIDUnique(ctx, p, fe); err != nil {
		return nil, err
	}

	return fe, nil
}

func (v *Pipeline) checkEmail(p *Profile, fe FieldErrors) {
	if p.Email == "" {
		return
	}
	if !emailPattern.MatchString(p.Email) {
		fe.Add("email", "not a valid email")
	}
}

func (v *Pipeline) checkZipCode(p *Profile, fe FieldErrors) {
	if p.ZipCode == "" {
		return
	}
	if !zipPattern.MatchString(p.ZipCode) {
		fe.Add("zip_code", "not a valid zipcode")
	}
}

func (v *Pipeline) checkPollOption(ctx context.Context, value, field, label string, fe FieldErrors) error {
	if value == "" {
		return nil
	}
	allowed, err := v.catalog.AllowedValues(ctx, field)
	if err != nil {
		return stderrors.NewCatalogLookupError(err)
	}
	if _, ok := allowed[value]; ok {
		return nil
	}
	labels := make([]string, 0, len(allowed))
	for _, l := range allowed {
		labels = append(labels, l)
	}
	fe.Add(field, fmt.Sprintf("%s must be one of %s", label, strings.Join(labels, " ")))
	return nil
}

func (v *Pipeline) checkAddressState(p *Profile, fe FieldErrors) {
	if p.AddressState == "" {
		return
	}
	if !containsString(ValidStates, p.AddressState) {
		fe.Add("address_state", fmt.Sprintf("State must be one of %s", strings.Join(ValidStates, " ")))
	}
}

func (v *Pipeline) checkGender(p *Profile, fe FieldErrors) {
	if p.Gender == "" {
		return
	}
	if !containsString(Genders, p.Gender) {
		fe.Add("gender", fmt.Sprintf("Gender must be one of %s", strings.Join(Genders, " ")))
	}
}

func (v *Pipeline) checkPaymentMethod(p *Profile, fe FieldErrors) {
	if p.PaymentMethod == "" {
		return
	}
	if !containsString(PaymentMethods, p.PaymentMethod) {
		fe.Add("payment_method", fmt.Sprintf("Payment method must be one of %s", strings.Join(PaymentMethods, " ")))
	}
}

func (v *Pipeline) checkChannelShapes(p *Profile, fe FieldErrors) {
	if v.shapes == nil {
		return
	}
	for name, payload := range p.Channels {
		for _, msg := range v.shapes.Validate(name, payload) {
			fe.Add("social_channels", msg)
		}
	}
}

// checkBlogCategories aggregates every unknown category into a single
// field error rather than one error per entry.
func (v *Pipeline) checkBlogCategories(p *Profile, fe FieldErrors) {
	blog, ok := p.Channels["blog"]
	if !ok {
		return
	}
	raw, ok := blog["categories"]
	if !ok {
		return
	}
	var list []interface{}
	switch v := raw.(type) {
	case []interface{}:
		list = v
	case []string:
		list = make([]interface{}, len(v))
		for i, s := range v {
			list[i] = s
		}
	default:
		return
	}

	var invalid []string
	for _, entry := range list {
		category, ok := entry.(string)
		if !ok || !containsString(BlogCategories, category) {
			invalid = append(invalid, fmt.Sprintf("%v", entry))
		}
	}
	if len(invalid) > 0 {
		fe.Add("social_channels", fmt.Sprintf(
			"%s is not one of the allowed blog categories (%s)",
			strings.Join(invalid, ", "), strings.Join(BlogCategories, " ")))
	}
}

// parseDateOfBirth promotes the raw MM/DD/YYYY input into the parsed
// date. A malformed input becomes a field error and leaves the date
// unset; it never escapes as a failure.
func (v *Pipeline) parseDateOfBirth(p *Profile, fe FieldErrors) {
	if p.RawDateOfBirth == "" {
		return
	}
	parsed, err := time.Parse(dateOfBirthLayout, p.RawDateOfBirth)
	if err != nil {
		fe.Add("date_of_birth", "Not a valid date")
		return
	}
	p.DateOfBirth = &parsed
}

func (v *Pipeline) checkMinimumAge(p *Profile, fe FieldErrors) {
	if p.DateOfBirth == nil {
		return
	}
	cutoff := v.now().AddDate(-13, 0, 0)
	if p.DateOfBirth.After(cutoff) {
		fe.Add("date_of_birth", "You must be 13 years or older to sign up")
	}
}

// checkExternalIDUnique queries the store for another profile holding
// the same external id. Lookup I/O failures are fatal, not field errors.
func (v *Pipeline) checkExternalIDUnique(ctx context.Context, p *Profile, fe FieldErrors) error {
	if p.FBUserID == "" {
		return nil
	}
	other, err := v.store.FindByExternalID(ctx, p.FBUserID)
	if err != nil {
		return stderrors.NewUniquenessCheckError(err)
	}
	if other != nil && other.ID != p.ID {
		fe.Add("fb_user_id", "Facebook account is already registered")
	}
	return nil
}
