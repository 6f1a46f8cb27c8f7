package session

// StyleNode is a node in the rotation graph.
type StyleNode struct {
	Name     string
	Adjacent []string
}

// RotationGraph maps soundscape style names to their graph nodes. When
// auto-rotation is on, the scheduler only drifts along edges -- no
// jarring jumps between unrelated textures.
var RotationGraph = map[string]*StyleNode{
	"ambient pad": {
		Name:     "ambient pad",
		Adjacent: []string{"crystal bells", "binaural theta", "soft noise", "witch drone"},
	},
	"crystal bells": {
		Name:     "crystal bells",
		Adjacent: []string{"ambient pad", "8bit arpeggio"},
	},
	"binaural theta": {
		Name:     "binaural theta",
		Adjacent: []string{"ambient pad", "witch drone", "soft noise"},
	},
	"witch drone": {
		Name:     "witch drone",
		Adjacent: []string{"ambient pad", "binaural theta"},
	},
	"8bit arpeggio": {
		Name:     "8bit arpeggio",
		Adjacent: []string{"crystal bells"},
	},
	"soft noise": {
		Name:     "soft noise",
		Adjacent: []string{"ambient pad", "binaural theta"},
	},
}

// RotationStyles returns all style names in the rotation graph.
func RotationStyles() []string {
	names := make([]string, 0, len(RotationGraph))
	for name := range RotationGraph {
		names = append(names, name)
	}
	return names
}

// styleAdjectives gives each style a pool of descriptors for fallback
// session titles.
var styleAdjectives = map[string][]string{
	"ambient pad":    {"floating", "weightless", "still", "open", "endless"},
	"crystal bells":  {"glinting", "clear", "bright", "delicate", "prismatic"},
	"binaural theta": {"deep", "slow", "inward", "settling", "hushed"},
	"witch drone":    {"midnight", "rooted", "low", "smouldering", "ancient"},
	"8bit arpeggio":  {"pixel", "playful", "tiny", "wandering", "looping"},
	"soft noise":     {"misty", "gentle", "grey", "drifting", "quiet"},
}

// SessionName generates a human-readable fallback title from style and
// session ID, picking a deterministic adjective from the ID bytes.
func SessionName(style, id string) string {
	if style == "" || id == "" {
		return ""
	}

	adjs := styleAdjectives[style]
	if len(adjs) == 0 {
		return style + " session"
	}

	var h int
	for i := 0; i < len(id) && i < 8; i++ {
		h = h*31 + int(id[i])
	}
	if h < 0 {
		h = -h
	}
	return adjs[h%len(adjs)] + " " + style
}
