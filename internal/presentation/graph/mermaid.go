package graph

import (
	"fmt"
	"path"
	"strings"

	"github.com/aretw0/folio/pkg/domain"
)

// Overlay contains conversation state to visualize on the graph.
type Overlay struct {
	// Stack lists the dialog ids of a conversation, bottom first.
	Stack []string
}

// OverlayFromState builds an overlay from a stored conversation.
func OverlayFromState(state *domain.ConversationState) *Overlay {
	o := &Overlay{}
	for _, f := range state.DialogStack {
		o.Stack = append(o.Stack, f.DialogID)
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the dialog set.
// It applies semantic styling:
// - Default dialog: ((Circle))
// - Fallback dialog: {{Hexagon}}
// - Dialog started by intents: [/Parallelogram/], labelled with its triggers
// - Other dialogs: [Rectangle]
// Links become edges; links leaving a dialog's own path are dotted.
// The overlay marks the frames of a conversation, the top one as current.
func GenerateMermaid(dialogs []domain.DialogInfo, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, d := range dialogs {
		safeID := sanitizeMermaidID(d.ID)

		opener, closer := "[", "]"
		switch {
		case d.ID == domain.DefaultDialogID:
			opener, closer = "((", "))"
		case d.ID == domain.FallbackDialogID:
			opener, closer = "{{", "}}"
		case len(d.Triggers) > 0:
			opener, closer = "[/", "/]"
		}

		label := d.ID
		if len(d.Triggers) > 0 {
			label = fmt.Sprintf("%s <br/> %s", d.ID, strings.Join(d.Triggers, ", "))
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, strings.ReplaceAll(label, "\"", "'"), closer)

		for _, link := range d.Links {
			arrow := "-->"
			if path.Dir(link) != d.ID && path.Dir(link) != path.Dir(d.ID) {
				arrow = "-.->"
			}
			if link == d.ID {
				arrow = "-. retry .->"
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, sanitizeMermaidID(link))
		}
	}

	if overlay != nil && len(overlay.Stack) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef waiting fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		top := len(overlay.Stack) - 1
		seen := make(map[string]bool)
		for _, id := range overlay.Stack[:top] {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s waiting;\n", safeID)
			}
		}
		fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.Stack[top]))
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.TrimPrefix(domain.NormalizeDialogID(id), "/")
	if s == "" {
		return "root"
	}
	s = strings.ReplaceAll(s, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
