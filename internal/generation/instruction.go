package generation

import (
	"fmt"
	"strings"

	"server/internal/domain"
)

// BuildInstruction composes the natural-language edit instruction for one
// pose. The first reference photo is the model, the second the doll; the
// background description is embedded verbatim and the aspect-ratio directive
// is stated as a strict requirement.
func BuildInstruction(pose Pose, background domain.Background, ratio domain.AspectRatio) string {
	parts := []string{
		"Combine the two reference photos into a single natural, photorealistic promotional photograph.",
		"The first photo shows the model, the second photo shows the plush doll.",
		fmt.Sprintf("Show the model %s.", pose.Description),
		"Keep the model's face, hairstyle, and outfit faithful to the first photo, and keep the doll's shape, colors, and details faithful to the second photo.",
	}
	if desc := strings.TrimSpace(background.Description); desc != "" {
		parts = append(parts, fmt.Sprintf("Set the scene in %s.", desc))
	}
	parts = append(parts, fmt.Sprintf("Strict requirement: the output must be a %s image.", ratio.Directive()))
	return strings.Join(parts, " ")
}
