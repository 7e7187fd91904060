package result

// Hit is a single document returned by the search index.
type Hit struct {
	objectKey string
	labels    []string
}

// NewHit creates a search hit.
func NewHit(objectKey string, labels []string) Hit {
	return Hit{objectKey: objectKey, labels: labels}
}

// ObjectKey returns the storage key of the matched photo (may be empty).
func (h *Hit) ObjectKey() string { return h.objectKey }

// Labels returns the labels of the matched photo.
func (h *Hit) Labels() []string { return h.labels }

// Result is a single photo returned to the caller.
type Result struct {
	url    string
	labels []string
}

// New creates a search result.
func New(url string, labels []string) Result {
	if labels == nil {
		labels = []string{}
	}
	return Result{url: url, labels: labels}
}

// FromHit builds a result by joining baseURL and the hit's object key.
func FromHit(baseURL string, h Hit) Result {
	return New(baseURL+h.objectKey, h.labels)
}

// URL returns the public link to the photo.
func (r *Result) URL() string { return r.url }

// Labels returns the photo labels.
func (r *Result) Labels() []string { return r.labels }
