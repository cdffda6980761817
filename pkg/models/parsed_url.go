package models

// ParsedURL holds the components extracted from a raw URL string.
//
// It is derived once per evaluation and never mutated afterwards. Every
// field may be empty: a URL without authority has an empty Host, a URL
// without explicit port has HasPort == false.
type ParsedURL struct {
	// Scheme is the lower-cased scheme, empty when the input has none.
	Scheme string

	// Host is the lower-cased hostname without userinfo, port or brackets.
	Host string

	// Port is the explicit port. Only meaningful when HasPort is true.
	Port    int
	HasPort bool

	Path     string
	Query    string
	Fragment string
}
