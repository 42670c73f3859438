// Package channels holds the immutable catalog of social channels and
// their field schemas. The catalog is built once at process start and
// never mutated afterward; every component that needs channel metadata
// receives the same Registry.
package channels

// PaymentField is reserved on every channel. It never produces a
// derived attribute and is excluded from the export list.
const PaymentField = "payment"

// Field describes one field of a channel schema.
type Field struct {
	Name   string
	IsList bool
}

// Channel describes a social channel and its ordered fields.
type Channel struct {
	Name   string
	Fields []Field
}

// Registry is the immutable channel catalog.
type Registry struct {
	channels []Channel
	index    map[string]map[string]Field
}

// NewRegistry builds a Registry from the given channel list.
func NewRegistry(chs []Channel) *Registry {
	index := make(map[string]map[string]Field, len(chs))
	for _, ch := range chs {
		fields := make(map[string]Field, len(ch.Fields))
		for _, f := range ch.Fields {
			fields[f.Name] = f
		}
		index[ch.Name] = fields
	}
	return &Registry{channels: chs, index: index}
}

// Default returns the production channel catalog.
func Default() *Registry {
	followerChannel := func(name string) Channel {
		return Channel{
			Name: name,
			Fields: []Field{
				{Name: "username"},
				{Name: "followers"},
				{Name: PaymentField},
			},
		}
	}

	return NewRegistry([]Channel{
		{
			Name: "blog",
			Fields: []Field{
				{Name: "name"},
				{Name: "url"},
				{Name: "visitors"},
				{Name: PaymentField},
				{Name: "categories", IsList: true},
			},
		},
		followerChannel("facebook"),
		followerChannel("instagram"),
		followerChannel("pinterest"),
		followerChannel("tumblr"),
		followerChannel("twitter"),
		followerChannel("vine"),
		{
			Name: "youtube",
			Fields: []Field{
				{Name: "channel"},
				{Name: "subscribers"},
				{Name: PaymentField},
			},
		},
	})
}

// Channels returns the catalog in registry order.
func (r *Registry) Channels() []Channel {
	return r.channels
}

// HasChannel reports whether name is a known channel.
func (r *Registry) HasChannel(name string) bool {
	_, ok := r.index[name]
	return ok
}

// HasField reports whether the channel/field pair is in the catalog.
func (r *Registry) HasField(channel, field string) bool {
	fields, ok := r.index[channel]
	if !ok {
		return false
	}
	_, ok = fields[field]
	return ok
}
