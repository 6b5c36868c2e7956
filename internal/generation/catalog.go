package generation

import "server/internal/domain"

// Pose is one fixed action description embedded in a generation request.
type Pose struct {
	ID          string
	Description string
}

// Poses is the ordered six-pose catalog. Requests are always issued in this
// order, one at a time.
var Poses = []Pose{
	{ID: "standing-hug", Description: "hugging the doll warmly while standing"},
	{ID: "rug-sitting", Description: "sitting on a soft rug with the doll on their lap"},
	{ID: "closeup-hug", Description: "shown in a close-up, smiling and hugging the doll tightly"},
	{ID: "playful-lift", Description: "playfully lifting the doll up in the air"},
	{ID: "peeking", Description: "peeking out from behind the doll"},
	{ID: "lying-cuddle", Description: "lying down and cuddling with the doll"},
}

// Backgrounds is the fixed scene catalog offered to the UI. The description is
// embedded verbatim into the instruction; the label is presentation-only.
var Backgrounds = []domain.Background{
	{ID: "cozy-bedroom", Label: "Cozy Bedroom", Description: "a warm, softly lit bedroom with pastel bedding and fairy lights"},
	{ID: "sunny-park", Label: "Sunny Park", Description: "a bright green park on a sunny afternoon with trees in the distance"},
	{ID: "studio-white", Label: "Studio White", Description: "a clean professional photo studio with a seamless white backdrop"},
	{ID: "city-night", Label: "City at Night", Description: "a city street at night with colorful bokeh lights in the background"},
	{ID: "beach-sunset", Label: "Beach Sunset", Description: "a sandy beach at golden hour with a soft orange sunset sky"},
	{ID: "flower-field", Label: "Flower Field", Description: "a blooming flower field under a clear blue spring sky"},
}

// BackgroundByID resolves a catalog entry; ok is false for unknown ids.
func BackgroundByID(id string) (domain.Background, bool) {
	for _, bg := range Backgrounds {
		if bg.ID == id {
			return bg, true
		}
	}
	return domain.Background{}, false
}
