package deflector

import "fmt"

// ProfileConfig carries construction-time settings for one entry of a
// lens-model list. Only TABULATED_RADIAL requires one; every other
// model accepts the zero value.
type ProfileConfig struct {
	TabulatedR     []float64 // Sample radii for TABULATED_RADIAL
	TabulatedAlpha []float64 // Deflection samples for TABULATED_RADIAL
}

// Evaluator is a single-plane deflector built from a lens-model list.
// It sums the reduced deflections of all profiles at a coordinate.
type Evaluator struct {
	models   []string
	profiles []Profile
}

// NewEvaluator builds the profiles named in modelList. configs may be
// nil, or must carry one entry per model. Unknown model names are
// construction errors.
func NewEvaluator(modelList []string, configs []ProfileConfig) (*Evaluator, error) {
	if configs != nil && len(configs) != len(modelList) {
		return nil, fmt.Errorf("got %d profile configs for %d lens models", len(configs), len(modelList))
	}
	profiles := make([]Profile, len(modelList))
	for i, name := range modelList {
		var cfg ProfileConfig
		if configs != nil {
			cfg = configs[i]
		}
		p, err := newProfile(name, cfg)
		if err != nil {
			return nil, fmt.Errorf("lens model %d: %w", i, err)
		}
		profiles[i] = p
	}
	return &Evaluator{
		models:   append([]string(nil), modelList...),
		profiles: profiles,
	}, nil
}

// newProfile maps a lens-model name to its profile implementation
func newProfile(name string, cfg ProfileConfig) (Profile, error) {
	switch name {
	case "SIS":
		return SIS{}, nil
	case "POINT_MASS":
		return PointMass{}, nil
	case "NFW":
		return NFW{}, nil
	case "SHEAR":
		return Shear{}, nil
	case "CONVERGENCE":
		return Convergence{}, nil
	case "TABULATED_RADIAL":
		return NewTabulatedRadial(cfg.TabulatedR, cfg.TabulatedAlpha)
	default:
		return nil, fmt.Errorf("unknown lens model %q", name)
	}
}

// Models returns a copy of the lens-model list
func (e *Evaluator) Models() []string {
	return append([]string(nil), e.models...)
}

// Deflection returns the total reduced deflection angle at (x, y).
// Each profile reads its own entry of params; profiles beyond
// len(params) see empty parameters and typically deflect by zero.
func (e *Evaluator) Deflection(x, y float64, params []Params) (alphaX, alphaY float64) {
	for i, profile := range e.profiles {
		var p Params
		if i < len(params) {
			p = params[i]
		}
		ax, ay := profile.Deflection(x, y, p)
		alphaX += ax
		alphaY += ay
	}
	return alphaX, alphaY
}
