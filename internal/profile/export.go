package profile

import (
	"socialstar-core/internal/channels"
)

// Snapshot is the ordered, flattened attribute view of a profile sent
// to external consumers.
type Snapshot struct {
	keys   []string
	values map[string]interface{}
}

// Keys returns the attribute names in export order.
func (s *Snapshot) Keys() []string {
	return s.keys
}

// Get returns the value for an attribute name.
func (s *Snapshot) Get(key string) (interface{}, bool) {
	v, ok := s.values[key]
	return v, ok
}

// AsMap returns a mutable copy of the snapshot values.
func (s *Snapshot) AsMap() map[string]interface{} {
	out := make(map[string]interface{}, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Exporter builds snapshots from the projector's export list. It is
// pure and callable at any time; channel-derived attributes reflect the
// profile's current channel data.
type Exporter struct {
	projector *channels.Projector
}

// NewExporter wires the exporter to the shared projector.
func NewExporter(projector *channels.Projector) *Exporter {
	return &Exporter{projector: projector}
}

// Snapshot builds the export view: the identity key first, then every
// attribute in the projector's export order. Channel attributes without
// data export as nil.
func (e *Exporter) Snapshot(p *Profile) *Snapshot {
	attrs := e.projector.ExportAttributes()
	s := &Snapshot{
		keys:   make([]string, 0, len(attrs)+1),
		values: make(map[string]interface{}, len(attrs)+1),
	}

	s.put("application_id", p.ID)
	for _, name := range attrs {
		if e.projector.IsChannelAttribute(name) {
			v, ok := e.projector.GetByAttribute(p.Channels, name)
			if !ok {
				s.put(name, nil)
				continue
			}
			s.put(name, v)
			continue
		}
		s.put(name, baseAttribute(p, name))
	}
	return s
}

// EventProperties builds the tracking payload for a status-change
// event: the snapshot values plus the analytics housekeeping key, which
// the coordinator removes before emitting.
func (e *Exporter) EventProperties(p *Profile) map[string]interface{} {
	props := e.Snapshot(p).AsMap()
	props["mp_name_tag"] = p.MixpanelMemberID
	props["status"] = p.Status.String()
	return props
}

func (s *Snapshot) put(key string, value interface{}) {
	s.keys = append(s.keys, key)
	s.values[key] = value
}

func baseAttribute(p *Profile, name string) interface{} {
	switch name {
	case "country_code":
		return p.CountryCode
	case "date_of_birth":
		if p.DateOfBirth == nil {
			return nil
		}
		return *p.DateOfBirth
	case "email":
		return p.Email
	case "fb_user_id":
		return p.FBUserID
	case "first_name":
		return p.FirstName
	case "gender":
		return p.Gender
	case "last_name":
		return p.LastName
	case "social_media_access_tokens":
		return p.AccessTokens
	case "terms_of_service":
		return p.TermsAccepted
	case "ethnicity":
		return p.Ethnicity
	case "relationship_status":
		return p.RelationshipStatus
	case "parenting_status":
		return p.ParentingStatus
	case "zip_code":
		return p.ZipCode
	default:
		return nil
	}
}
