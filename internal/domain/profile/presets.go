package profile

import "github.com/okian/repcoach/internal/domain/model"

// Preset exercise names.
const (
	BicepCurl     = "Bicep Curl"
	ShoulderPress = "Shoulder Press"
	Squat         = "Squat"
	KneeLift      = "Knee Lift"
	StandingRow   = "Standing Row"
)

// upperBodyFeatures feeds shoulder, elbow and wrist of both sides to the form
// classifier, right side first.
var upperBodyFeatures = []model.PoseLandmark{
	model.RightShoulder, model.RightElbow, model.RightWrist,
	model.LeftShoulder, model.LeftElbow, model.LeftWrist,
}

var lowerBodyFeatures = []model.PoseLandmark{
	model.RightHip, model.RightKnee, model.RightAnkle,
	model.LeftHip, model.LeftKnee, model.LeftAnkle,
}

func elbowTriplets() map[model.Limb]Triplet {
	return map[model.Limb]Triplet{
		model.Right: {A: model.RightShoulder, B: model.RightElbow, C: model.RightWrist},
		model.Left:  {A: model.LeftShoulder, B: model.LeftElbow, C: model.LeftWrist},
	}
}

// Presets returns the built-in exercise profiles. Each call returns fresh
// copies so callers may modify them.
func Presets() []Profile {
	return []Profile{
		{
			Name:              BicepCurl,
			Joint:             JointElbow,
			Triplets:          elbowTriplets(),
			FeatureLandmarks:  append([]model.PoseLandmark(nil), upperBodyFeatures...),
			DefaultContracted: 40,
			DefaultExtended:   160,
		},
		{
			Name:  ShoulderPress,
			Joint: JointShoulder,
			Triplets: map[model.Limb]Triplet{
				model.Right: {A: model.RightHip, B: model.RightShoulder, C: model.RightElbow},
				model.Left:  {A: model.LeftHip, B: model.LeftShoulder, C: model.LeftElbow},
			},
			FeatureLandmarks:  append([]model.PoseLandmark(nil), upperBodyFeatures...),
			DefaultContracted: 30,
			DefaultExtended:   165,
		},
		{
			Name:  Squat,
			Joint: JointKnee,
			Triplets: map[model.Limb]Triplet{
				model.Right: {A: model.RightHip, B: model.RightKnee, C: model.RightAnkle},
				model.Left:  {A: model.LeftHip, B: model.LeftKnee, C: model.LeftAnkle},
			},
			FeatureLandmarks:  append([]model.PoseLandmark(nil), lowerBodyFeatures...),
			DefaultContracted: 80,
			DefaultExtended:   170,
		},
		{
			Name:  KneeLift,
			Joint: JointHip,
			Triplets: map[model.Limb]Triplet{
				model.Right: {A: model.RightShoulder, B: model.RightHip, C: model.RightKnee},
				model.Left:  {A: model.LeftShoulder, B: model.LeftHip, C: model.LeftKnee},
			},
			FeatureLandmarks:  append([]model.PoseLandmark(nil), lowerBodyFeatures...),
			DefaultContracted: 90,
			DefaultExtended:   170,
		},
		{
			Name:              StandingRow,
			Joint:             JointElbow,
			Triplets:          elbowTriplets(),
			FeatureLandmarks:  append([]model.PoseLandmark(nil), upperBodyFeatures...),
			DefaultContracted: 60,
			DefaultExtended:   165,
		},
	}
}

// Combine returns base with every profile of overrides replacing the base
// profile of the same name, or appended when new.
func Combine(base, overrides []Profile) []Profile {
	out := make([]Profile, 0, len(base)+len(overrides))
	idx := make(map[string]int, len(base))
	for _, p := range base {
		idx[key(p.Name)] = len(out)
		out = append(out, p)
	}
	for _, p := range overrides {
		if i, ok := idx[key(p.Name)]; ok {
			out[i] = p
			continue
		}
		idx[key(p.Name)] = len(out)
		out = append(out, p)
	}
	return out
}

// DefaultRegistry returns a registry of the built-in presets.
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(Presets()...)
}
