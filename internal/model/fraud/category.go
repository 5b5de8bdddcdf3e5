package fraud

// Category describes one family of fraud schemes in the knowledge base.
type Category struct {
	ID               string `json:"id" toml:"id"`
	Title            string `json:"title" toml:"title"`
	ShortDescription string `json:"description" toml:"description"`
	Icon             Icon   `json:"icon" toml:"icon"`
	LongDescription  string `json:"details" toml:"details"`
}

// Advice is one step a victim should take after being defrauded.
type Advice struct {
	Text string `json:"text" toml:"text"`
}
