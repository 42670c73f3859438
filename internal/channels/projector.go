package channels

// ChannelData is the per-profile mapping of channel name to field values.
type ChannelData map[string]map[string]interface{}

// BaseExportAttributes is the fixed head of the export list. Channel
// attributes follow it in registry order.
var BaseExportAttributes = []string{
	"country_code",
	"date_of_birth",
	"email",
	"fb_user_id",
	"first_name",
	"gender",
	"last_name",
	"social_media_access_tokens",
	"terms_of_service",
	"ethnicity",
	"relationship_status",
	"parenting_status",
	"zip_code",
}

// Projector derives per-channel attribute lookups from the registry. It
// replaces runtime accessor generation with a table built once at
// startup.
type Projector struct {
	registry   *Registry
	exportList []string
	accessors  map[string][2]string
}

// NewProjector builds the projector and its export attribute list.
func NewProjector(r *Registry) *Projector {
	exportList := make([]string, 0, len(BaseExportAttributes))
	exportList = append(exportList, BaseExportAttributes...)

	accessors := make(map[string][2]string)
	for _, ch := range r.Channels() {
		for _, f := range ch.Fields {
			if f.Name == PaymentField {
				continue
			}
			name := ch.Name + "_" + f.Name
			exportList = append(exportList, name)
			accessors[name] = [2]string{ch.Name, f.Name}
		}
	}

	return &Projector{
		registry:   r,
		exportList: exportList,
		accessors:  accessors,
	}
}

// ExportAttributes returns the full ordered export list. Callers must
// not mutate the returned slice.
func (p *Projector) ExportAttributes() []string {
	return p.exportList
}

// Get reads one channel field from data. A channel with no data on the
// profile yields (nil, false) for every field, never an error.
func (p *Projector) Get(data ChannelData, channel, field string) (interface{}, bool) {
	fields, ok := data[channel]
	if !ok {
		return nil, false
	}
	v, ok := fields[field]
	return v, ok
}

// GetByAttribute resolves a derived attribute name like "blog_categories"
// against data. Unknown attribute names yield (nil, false).
func (p *Projector) GetByAttribute(data ChannelData, attribute string) (interface{}, bool) {
	pair, ok := p.accessors[attribute]
	if !ok {
		return nil, false
	}
	return p.Get(data, pair[0], pair[1])
}

// IsChannelAttribute reports whether name is a derived channel attribute.
func (p *Projector) IsChannelAttribute(name string) bool {
	_, ok := p.accessors[name]
	return ok
}
