// Package profile defines the static per-exercise configuration: which joint
// is tracked, which landmarks form it on each side, which landmarks feed the
// form classifier and the default thresholds used before calibration.
package profile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/repcoach/internal/domain/model"
)

// Joint names the tracked joint.
type Joint string

// Supported joints.
const (
	JointElbow    Joint = "ELBOW"
	JointShoulder Joint = "SHOULDER"
	JointHip      Joint = "HIP"
	JointKnee     Joint = "KNEE"
)

// Title returns the joint name for user-facing messages.
func (j Joint) Title() string {
	s := strings.ToLower(string(j))
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Triplet is the (A, B, C) landmark chain whose angle at B is tracked.
type Triplet struct {
	A model.PoseLandmark `koanf:"a"`
	B model.PoseLandmark `koanf:"b"`
	C model.PoseLandmark `koanf:"c"`
}

// Profile is the static configuration of one exercise.
type Profile struct {
	Name              string                 `koanf:"name"`
	Category          string                 `koanf:"category"`
	Joint             Joint                  `koanf:"joint"`
	Triplets          map[model.Limb]Triplet `koanf:"triplets"`
	FeatureLandmarks  []model.PoseLandmark   `koanf:"feature_landmarks"`
	DefaultContracted int                    `koanf:"default_contracted"`
	DefaultExtended   int                    `koanf:"default_extended"`
}

// Kind returns the category used to pick mismatch rules, falling back to the
// exercise name.
func (p Profile) Kind() string {
	if p.Category != "" {
		return p.Category
	}
	return p.Name
}

// Triplet returns the landmark chain for limb.
func (p Profile) Triplet(limb model.Limb) Triplet {
	return p.Triplets[limb]
}

// Validate rejects profiles that cannot be evaluated per frame.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidProfile)
	}
	if p.Joint == "" {
		return fmt.Errorf("%w: %s: missing joint", ErrInvalidProfile, p.Name)
	}
	for _, limb := range model.Limbs {
		t, ok := p.Triplets[limb]
		if !ok {
			return fmt.Errorf("%w: %s: missing %s landmark triplet", ErrInvalidProfile, p.Name, limb)
		}
		if !t.A.Valid() || !t.B.Valid() || !t.C.Valid() {
			return fmt.Errorf("%w: %s: %s triplet index out of range", ErrInvalidProfile, p.Name, limb)
		}
		if t.A == t.B || t.B == t.C || t.A == t.C {
			return fmt.Errorf("%w: %s: %s triplet repeats a landmark", ErrInvalidProfile, p.Name, limb)
		}
	}
	for limb := range p.Triplets {
		if !limb.Valid() {
			return fmt.Errorf("%w: %s: unknown limb %q", ErrInvalidProfile, p.Name, limb)
		}
	}
	if len(p.FeatureLandmarks) == 0 {
		return fmt.Errorf("%w: %s: missing feature landmarks", ErrInvalidProfile, p.Name)
	}
	for _, idx := range p.FeatureLandmarks {
		if !idx.Valid() {
			return fmt.Errorf("%w: %s: feature landmark %d out of range", ErrInvalidProfile, p.Name, idx)
		}
	}
	if p.DefaultContracted < 0 || p.DefaultExtended > 180 || p.DefaultContracted >= p.DefaultExtended {
		return fmt.Errorf("%w: %s: default thresholds %d/%d", ErrInvalidProfile, p.Name, p.DefaultContracted, p.DefaultExtended)
	}
	return nil
}

// Registry is a validated, name-keyed set of profiles.
type Registry struct {
	byKey map[string]Profile
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NewRegistry validates every profile and indexes them by case-insensitive
// name. The first invalid profile aborts construction.
func NewRegistry(profiles ...Profile) (*Registry, error) {
	r := &Registry{byKey: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		k := key(p.Name)
		if _, dup := r.byKey[k]; dup {
			return nil, fmt.Errorf("%w: duplicate profile %q", ErrInvalidProfile, p.Name)
		}
		r.byKey[k] = p
	}
	return r, nil
}

// Lookup returns the profile named name.
func (r *Registry) Lookup(name string) (Profile, error) {
	p, ok := r.byKey[key(name)]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownExercise, name)
	}
	return p, nil
}

// Names returns the registered exercise names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byKey))
	for _, p := range r.byKey {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}
