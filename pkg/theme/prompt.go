package theme

import (
	"fmt"
	"strings"
)

const promptHeader = `You are a visual theme engine for a music visualizer app. Given a song, return a JSON object describing the perfect visual theme.

`

const promptBody = `
Return ONLY a raw JSON object (no markdown, no explanation) with these exact fields:
{
  "label": "2-3 word vibe label in ALL CAPS (e.g. PURE EUPHORIA, DARK ENERGY, HEARTBREAK, FESTIVAL MADNESS)",
  "palette": ["#hex1","#hex2","#hex3","#hex4"],
  "bgColor": "#hex — very dark background color thematically matching the song",
  "particleShape": one of: "trail","float","drift","burst","spiral","sharp",
  "geoSides": [n1,n2,n3] — array of 3 polygon side counts (3-12) matching the song's geometry feel,
  "waveAmp": number 0.4-2.0 — wave intensity matching song energy,
  "beatFlash": number 0.05-0.35 — beat flash brightness,
  "orbIntensity": number 0.05-0.18 — background glow intensity,
  "gridColor": "rgba(r,g,b,a) — subtle grid color matching palette",
  "symbols": array of 0-3 special symbols to render, chosen from: heart, star, diamond, lightning, note, infinity, flower, spiral, crown, flame, snowflake, moon,
  "splashDesc": "5-10 word poetic description shown during song transition"
}

Be creative and truly match the song's soul. For example:
- A Marshmello track: white/pastel palette, smiley/party energy, high waveAmp, symbols: ["star","flower"]
- A heartbreak ballad: dark reds/purples, slow drift particles, symbols: ["heart"]
- A metal track: harsh reds/blacks, burst particles, jagged triangles, symbols: ["lightning","flame"]
- A holiday song: cool blues/whites, symbols: ["snowflake","star"]`

type Song struct {
	TrackName  string   `json:"trackName"`
	ArtistName string   `json:"artistName"`
	Genres     []string `json:"genres,omitempty"`
}

func (s Song) genreList() string {
	genres := strings.Join(s.Genres, ", ")
	if genres == "" {
		return "unknown"
	}

	return genres
}

// BuildPrompt renders the instruction sent to the language model for song.
func BuildPrompt(song Song) string {
	var sb strings.Builder

	sb.WriteString(promptHeader)
	fmt.Fprintf(&sb, "Song: \"%s\" by %s\n", song.TrackName, song.ArtistName)
	fmt.Fprintf(&sb, "Genres: %s\n", song.genreList())
	sb.WriteString(promptBody)

	return sb.String()
}
