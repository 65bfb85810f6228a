package types

// Event captures a typed notification emitted while the loan engine applies a
// state transition. Attributes are string encoded so embedders can forward
// them without knowing the concrete payload shape.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
