// Package prompts renders the embedded LLM prompt templates.
// Each JSON file maps a key to a text/template body.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"text/template"
)

//go:embed *.json
var promptFiles embed.FS

// StarStories is the prompt file used by the story generator.
const StarStories = "star_stories.json"

var (
	cache   = make(map[string]map[string]*template.Template)
	cacheMu sync.RWMutex
)

// Render executes the template stored under key in filename.
func Render(filename, key string, data any) (string, error) {
	tmpls, err := loadFile(filename)
	if err != nil {
		return "", err
	}
	tmpl, ok := tmpls[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render prompt %s/%s: %w", filename, key, err)
	}
	return sb.String(), nil
}

// Keys lists the prompt keys in a file, sorted.
func Keys(filename string) ([]string, error) {
	tmpls, err := loadFile(filename)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(tmpls))
	for k := range tmpls {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func loadFile(filename string) (map[string]*template.Template, error) {
	cacheMu.RLock()
	tmpls, ok := cache[filename]
	cacheMu.RUnlock()
	if ok {
		return tmpls, nil
	}

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}
	tmpls = make(map[string]*template.Template, len(raw))
	for key, body := range raw {
		t, err := template.New(key).Option("missingkey=error").Parse(body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse prompt %s/%s: %w", filename, key, err)
		}
		tmpls[key] = t
	}

	cacheMu.Lock()
	cache[filename] = tmpls
	cacheMu.Unlock()
	return tmpls, nil
}
