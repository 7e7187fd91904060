package photo

// photoDoc is the index document schema shared by ingest and query.
type photoDoc struct {
	ObjectKey        string   `json:"objectKey"`
	Bucket           string   `json:"bucket"`
	CreatedTimestamp string   `json:"createdTimestamp"`
	Labels           []string `json:"labels"`
}

type searchBody struct {
	Query struct {
		MultiMatch multiMatch `json:"multi_match"`
	} `json:"query"`
}

type multiMatch struct {
	Query  string   `json:"query"`
	Fields []string `json:"fields"`
}

// hitSource is the part of a hit's _source read back by label search.
type hitSource struct {
	ObjectKey string   `json:"objectKey"`
	Labels    []string `json:"labels"`
}
