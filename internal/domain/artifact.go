package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Artifact is an in-memory image carrying both the encoded payload sent to the
// provider and a locally displayable preview reference. Payload and preview
// are produced by the same encode pass and always represent identical pixel
// content. Artifacts are replaced wholesale on re-upload, never mutated.
type Artifact struct {
	Data    []byte
	MIME    string
	Width   int
	Height  int
	DataURL string
}

// NewArtifact builds an Artifact from a single encoded image, deriving the
// preview data URL from the same bytes.
func NewArtifact(data []byte, mime string, width, height int) *Artifact {
	return &Artifact{
		Data:    data,
		MIME:    mime,
		Width:   width,
		Height:  height,
		DataURL: fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)),
	}
}

// Slot identifies which upload position an artifact occupies.
type Slot string

const (
	SlotModel Slot = "model"
	SlotDoll  Slot = "doll"
)

// ParseSlot validates a slot name from the request path.
func ParseSlot(s string) (Slot, bool) {
	switch Slot(strings.ToLower(strings.TrimSpace(s))) {
	case SlotModel:
		return SlotModel, true
	case SlotDoll:
		return SlotDoll, true
	default:
		return "", false
	}
}

// AspectRatio enumerates the output shapes a run may request.
type AspectRatio string

const (
	AspectPortrait  AspectRatio = "9:16"
	AspectLandscape AspectRatio = "16:9"
	AspectSquare    AspectRatio = "1:1"
)

// NormalizeAspectRatio sanitizes free-form input into a supported ratio.
// Unrecognized values fall back to portrait, mirroring the directive default.
func NormalizeAspectRatio(s string) AspectRatio {
	switch AspectRatio(strings.TrimSpace(s)) {
	case AspectLandscape:
		return AspectLandscape
	case AspectSquare:
		return AspectSquare
	default:
		return AspectPortrait
	}
}

// Directive returns the human-readable phrase embedded verbatim into the
// generation instruction as a strict output-shape requirement.
func (a AspectRatio) Directive() string {
	switch a {
	case AspectLandscape:
		return "horizontal 16:9 landscape"
	case AspectSquare:
		return "square 1:1"
	default:
		return "vertical 9:16 portrait"
	}
}

// Background is one entry of the fixed scene catalog. The description is sent
// verbatim to the provider; the label is presentation-only.
type Background struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}
