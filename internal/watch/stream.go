package watch

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/tessera3d/tessera/pkg/changeset"
	"github.com/tessera3d/tessera/pkg/tiletree"
)

// OutputFormat selects how watch renders the event stream.
type OutputFormat string

const (
	// FormatDefault is human-readable line output.
	FormatDefault OutputFormat = "default"

	// FormatJSON is line-delimited JSON, one object per event.
	FormatJSON OutputFormat = "json"
)

// ParseFormat maps a flag string to an output format. The empty string
// means default.
func ParseFormat(s string) (OutputFormat, error) {
	switch s {
	case "", "default":
		return FormatDefault, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("invalid output format %q (valid: default, json)", s)
	}
}

// Streamer renders feed activity and the tile tree states that result. Not
// safe for concurrent use; the watch command drives it from the monitor
// goroutine.
type Streamer struct {
	out    io.Writer
	format OutputFormat
	enc    *json.Encoder
}

// NewStreamer writes events to out in the given format.
func NewStreamer(out io.Writer, format OutputFormat) *Streamer {
	return &Streamer{out: out, format: format, enc: json.NewEncoder(out)}
}

type saveLine struct {
	Type   string          `json:"type"`
	Seq    int64           `json:"seq,omitempty"`
	SaveID string          `json:"save_id"`
	Models []saveModelLine `json:"models"`
}

type saveModelLine struct {
	Model    string `json:"model"`
	Elements int    `json:"elements"`
}

type scopeLine struct {
	Type  string `json:"type"`
	Kind  string `json:"kind"`
	Scope string `json:"scope_id"`
}

type statesLine struct {
	Type   string      `json:"type"`
	Models []stateLine `json:"models"`
}

type stateLine struct {
	Model  string      `json:"model"`
	State  string      `json:"state"`
	Range  *[6]float32 `json:"range,omitempty"`
	Hidden []string    `json:"hidden,omitempty"`
}

// OnSave renders one applied save event.
func (s *Streamer) OnSave(e *changeset.SaveEvent) {
	if s.format == FormatJSON {
		line := saveLine{Type: "save", Seq: e.Seq, SaveID: e.ID}
		for _, mc := range e.Models {
			line.Models = append(line.Models, saveModelLine{Model: string(mc.Model), Elements: len(mc.Elements)})
		}
		s.enc.Encode(line)
		return
	}

	parts := make([]string, 0, len(e.Models))
	for _, mc := range e.Models {
		parts = append(parts, fmt.Sprintf("%s:%d", mc.Model, len(mc.Elements)))
	}
	fmt.Fprintf(s.out, "%-6s seq=%-4d %s\n", "save", e.Seq, strings.Join(parts, "  "))
}

// OnScope renders one scope transition.
func (s *Streamer) OnScope(kind, scopeID string) {
	if s.format == FormatJSON {
		s.enc.Encode(scopeLine{Type: "scope", Kind: kind, Scope: scopeID})
		return
	}

	fmt.Fprintf(s.out, "%-6s %-6s id=%s\n", "scope", kind, scopeID)
}

// WriteStates renders the current state of every tree.
func (s *Streamer) WriteStates(trees []*tiletree.TileTree) {
	if s.format == FormatJSON {
		line := statesLine{Type: "states"}
		for _, tree := range trees {
			st := stateLine{Model: string(tree.Model()), State: tree.State().String()}
			if r := tree.Range(); !r.IsEmpty() {
				st.Range = &[6]float32{r.Min.X, r.Min.Y, r.Min.Z, r.Max.X, r.Max.Y, r.Max.Z}
			}
			for _, id := range tree.HiddenElements() {
				st.Hidden = append(st.Hidden, string(id))
			}
			line.Models = append(line.Models, st)
		}
		s.enc.Encode(line)
		return
	}

	for _, tree := range trees {
		fmt.Fprintf(s.out, "  %-20s %-12s %-36s hidden=%d\n",
			tree.Model(), tree.State(), tree.Range(), len(tree.HiddenElements()))
	}
}
