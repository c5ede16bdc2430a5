package lblannotate

// Session is the per-run provider configuration. It is built once from the command line and
// passed to the provider constructors.
type Session struct {
	Profile string // AWS: the shared config profile. GCP: the path to a credentials file.
	Region  string // Overrides the region resolved by the provider SDK.
}

// ProfileName returns the profile for display purposes, "default" if none is set.
func (s Session) ProfileName() string {
	if s.Profile == "" {
		return "default"
	}
	return s.Profile
}

// RegionSource describes where the effective region of a session came from.
type RegionSource int

// The known region sources.
const (
	RegionUnresolved RegionSource = iota // Left to the SDK defaults of each service.
	RegionSpecified                      // Set explicitly on the Session.
	RegionResolved                       // Resolved from the profile or environment.
)

// Request identifies the image to analyse and the label detection parameters.
type Request struct {
	Bucket        string
	Key           string
	MaxLabels     int
	MinConfidence float64 // Range [0, 100].
}
