// Package prompt composes the instruction sent to the image model,
// optionally flavored by a named style preset.
package prompt

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed styles.yaml
var stylesYAML []byte

type stylePreset struct {
	Name     string `yaml:"name"`
	Fragment string `yaml:"fragment"`
}

type styleFile struct {
	Styles []stylePreset `yaml:"styles"`
}

var (
	loadOnce sync.Once
	loadErr  error
	presets  map[string]string
)

func loadStyles() {
	var f styleFile
	if err := yaml.Unmarshal(stylesYAML, &f); err != nil {
		loadErr = fmt.Errorf("failed to parse style presets: %w", err)
		return
	}
	presets = make(map[string]string, len(f.Styles))
	for _, s := range f.Styles {
		presets[s.Name] = s.Fragment
	}
}

// Styles returns the available preset names, sorted.
func Styles() ([]string, error) {
	loadOnce.Do(loadStyles)
	if loadErr != nil {
		return nil, loadErr
	}
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Compose builds the full instruction for one sprite-sheet generation.
// An empty style means no extra flavor; an unknown style is an error.
func Compose(userPrompt, style string, frameCount int) (string, error) {
	loadOnce.Do(loadStyles)
	if loadErr != nil {
		return "", loadErr
	}

	fragment := ""
	if style != "" {
		frag, ok := presets[style]
		if !ok {
			names, _ := Styles()
			return "", fmt.Errorf("unknown style %q (available: %s)", style, strings.Join(names, ", "))
		}
		fragment = frag
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Create a SINGLE square image that contains a %d-frame animation laid out as a 3x3 grid of equal-sized cells, read left to right, top to bottom.

Animation subject: %s
`, frameCount, userPrompt)

	if fragment != "" {
		b.WriteString("\nStyle: ")
		b.WriteString(fragment)
		b.WriteString("\n")
	}

	b.WriteString(`
REQUIREMENTS:
1. Exactly one image in the reply, square, containing all frames in the 3x3 grid
2. Consecutive cells differ only by the motion of the animation; keep the subject, framing and background consistent
3. The motion must loop: frame 9 should lead naturally back into frame 1
4. No grid lines, borders, numbers or labels between cells
5. If a reference image is attached, keep its subject recognizable in every frame

Also include a short text reply containing ONLY this JSON object with your suggested playback speed in milliseconds per frame (between 80 and 2000):
{"frameDuration": <number>}`)

	return b.String(), nil
}
