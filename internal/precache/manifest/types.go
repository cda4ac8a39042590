package manifest

// Asset is one emitted build output: a forward-slash path relative to the
// output directory and the exact bytes the host will write.
type Asset struct {
	Name    string
	Content []byte
}

// Entry is one precache manifest record. Revision is nil when the URL is
// hash-bearing, since the filename already changes with the content.
type Entry struct {
	URL      string  `json:"url"`
	Revision *string `json:"revision"`
}

// HasRevision reports whether the entry carries a content revision.
func (e Entry) HasRevision() bool {
	return e.Revision != nil
}
