package api

// Model is one entry of the OpenAI-compatible /models listing.
type Model struct {
	ID      string `json:"id" mapstructure:"id"`
	Object  string `json:"object" mapstructure:"object"` // always "model"
	Created int64  `json:"created,omitempty" mapstructure:"created"`
	OwnedBy string `json:"owned_by" mapstructure:"owned_by"`
}

type ModelList struct {
	Object string  `json:"object"` // always "list"
	Data   []Model `json:"data"`
}
