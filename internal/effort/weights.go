package effort

// Weights holds the coefficients of the carpalx effort model.
type Weights struct {
	// Per-key penalty weights.
	Finger float64 `toml:"finger" json:"finger" yaml:"finger"` // wf
	Row    float64 `toml:"row" json:"row" yaml:"row"`          // wr
	Hand   float64 `toml:"hand" json:"hand" yaml:"hand"`       // wh

	// Triad combination: each of base and penalty effort is folded as
	// K1*e1*(1 + K2*e2*(1 + K3*e3)).
	K1 float64 `toml:"k1" json:"k1" yaml:"k1"`
	K2 float64 `toml:"k2" json:"k2" yaml:"k2"`
	K3 float64 `toml:"k3" json:"k3" yaml:"k3"`

	// Contribution of base, penalty and stroke effort to the triad total.
	KB float64 `toml:"kb" json:"kb" yaml:"kb"`
	KP float64 `toml:"kp" json:"kp" yaml:"kp"`
	KS float64 `toml:"ks" json:"ks" yaml:"ks"`

	// Stroke path weights for hand, row and finger alternation.
	PH float64 `toml:"ph" json:"ph" yaml:"ph"`
	PR float64 `toml:"pr" json:"pr" yaml:"pr"`
	PF float64 `toml:"pf" json:"pf" yaml:"pf"`
}

// DefaultWeights returns the reference carpalx coefficients.
func DefaultWeights() Weights {
	return Weights{
		Finger: 2.5948,
		Row:    1.3088,
		Hand:   1,
		K1:     1,
		K2:     0.367,
		K3:     0.235,
		KB:     0.3555,
		KP:     0.6423,
		KS:     0.4268,
		PH:     1,
		PR:     0.3,
		PF:     0.3,
	}
}
