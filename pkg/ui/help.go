package ui

import (
	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# neurodeck

Pipeline dashboard for the operant conditioning demo.

## Keys

| Key | Action |
|-----|--------|
| j / ↓ | select next step |
| k / ↑ | select previous step |
| enter | expand the selected card |
| esc | collapse the expanded card |
| r | run the selected step |
| c | edit configuration |
| y | yank results summary to clipboard |
| s | save the comparison chart next to the results |
| f | star the selected step |
| ? | toggle this help |
| q | quit |

## Steps

1. **collect** records EEG/fNIRS and game telemetry
2. **process** scores operant conditioning and builds datasets
3. **train** fits the dirty and clean models
4. **simulate** runs headless evaluation batches
5. **demo** launches the live game with the trained model

Artefacts are watched on disk; card badges refresh as steps produce them.
`

// renderHelp renders the help screen, falling back to the raw markdown if
// the renderer cannot be built (e.g. in a degraded terminal).
func renderHelp(width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(min(width-4, 96)),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return out
}
