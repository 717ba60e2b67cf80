package exercises

// Exercise is one catalog entry shown to end users.
type Exercise struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
}

// Catalog returns the user-facing exercise list.
func Catalog() []Exercise {
	return []Exercise{
		{
			ID:          "pull_up",
			Name:        "Pull Up",
			Description: "Upper body strength exercise targeting back and biceps",
			Difficulty:  "Intermediate",
		},
		{
			ID:          "push_up",
			Name:        "Push Up",
			Description: "Bodyweight exercise targeting chest, shoulders, and triceps",
			Difficulty:  "Beginner",
		},
		{
			ID:          "squat",
			Name:        "Squat",
			Description: "Lower body exercise targeting quadriceps, hamstrings, and glutes",
			Difficulty:  "Beginner",
		},
		{
			ID:          "bridge",
			Name:        "Glute Bridge",
			Description: "Hip extension exercise targeting glutes and hamstrings",
			Difficulty:  "Beginner",
		},
		{
			ID:          "clam",
			Name:        "Clamshell",
			Description: "Hip abduction exercise targeting glute medius",
			Difficulty:  "Beginner",
		},
	}
}

// Tips returns static form tips for an exercise, with a generic
// fallback for unknown identifiers.
func Tips(exerciseID string) []string {
	tips := map[string][]string{
		"pull_up": {
			"Keep your core engaged throughout the movement",
			"Pull your shoulder blades down and back",
			"Avoid swinging or using momentum",
			"Lower yourself with control",
		},
		"push_up": {
			"Maintain a straight line from head to heels",
			"Keep your core tight",
			"Lower your body as a single unit",
			"Keep your elbows close to your body",
		},
		"squat": {
			"Keep your chest up and core engaged",
			"Push your knees out in line with your toes",
			"Keep your weight in your heels",
			"Go as deep as you can while maintaining good form",
		},
		"bridge": {
			"Drive through your heels to lift your hips",
			"Squeeze your glutes at the top",
			"Avoid arching your lower back",
			"Lower back down with control",
		},
		"clam": {
			"Keep your feet together throughout",
			"Open the top knee without rolling your hips back",
			"Move slowly in both directions",
			"Keep your core stable",
		},
	}

	if t, ok := tips[exerciseID]; ok {
		return t
	}
	return []string{"No specific tips available for this exercise"}
}
