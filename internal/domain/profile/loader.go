package profile

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/repcoach/internal/domain/model"
)

// LoadFile reads exercise profiles from a YAML document of the form
//
//	profiles:
//	  - name: Hammer Curl
//	    joint: ELBOW
//	    triplets:
//	      RIGHT: {a: 12, b: 14, c: 16}
//	      LEFT:  {a: 11, b: 13, c: 15}
//	    feature_landmarks: [12, 14, 16, 11, 13, 15]
//	    default_contracted: 40
//	    default_extended: 160
//
// Every profile is validated before returning.
func LoadFile(path string) ([]Profile, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadProfiles, path, err)
	}

	var profiles []Profile
	if err := k.UnmarshalWithConf("profiles", &profiles, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadProfiles, path, err)
	}

	for i := range profiles {
		profiles[i].Joint = Joint(strings.ToUpper(string(profiles[i].Joint)))
		normalized := make(map[model.Limb]Triplet, len(profiles[i].Triplets))
		for limb, t := range profiles[i].Triplets {
			normalized[model.Limb(strings.ToUpper(string(limb)))] = t
		}
		profiles[i].Triplets = normalized
		if err := profiles[i].Validate(); err != nil {
			return nil, err
		}
	}
	return profiles, nil
}

// LoadRegistry returns the presets overridden and extended by the profiles
// in path. An empty path yields the presets alone.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry()
	}
	extra, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return NewRegistry(Combine(Presets(), extra)...)
}
