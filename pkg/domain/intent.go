package domain

// IntentMatch is one classification produced by a recognizer.
type IntentMatch struct {
	Intent     string   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Entities   []Entity `json:"entities,omitempty"`
}

// Entity is a typed span extracted from the utterance.
type Entity struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Start int    `json:"start,omitempty"`
	End   int    `json:"end,omitempty"`
}

// Entity returns the first entity of the given type.
func (m IntentMatch) Entity(entityType string) (Entity, bool) {
	for _, e := range m.Entities {
		if e.Type == entityType {
			return e, true
		}
	}
	return Entity{}, false
}
