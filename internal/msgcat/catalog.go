package msgcat

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"

	yaml "gopkg.in/yaml.v3"

	"github.com/park285/cheese-desk/internal/domain"
)

//go:embed messages.*.yaml
var defaultFiles embed.FS

const baseLang = "en"

// Catalog holds flattened dot-key templates. English is always loaded first
// so a partial translation falls back key by key.
type Catalog struct {
	mu   sync.RWMutex
	lang string
	data map[string]string
}

// New loads the embedded English messages, overlays lang when it differs,
// then applies YAML overrides from overrideDir if set.
func New(lang, overrideDir string) (*Catalog, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" { lang = baseLang }
	c := &Catalog{lang: lang, data: make(map[string]string)}

	if err := c.loadEmbedded(baseLang); err != nil { return nil, err }
	if lang != baseLang {
		if err := c.loadEmbedded(lang); err != nil { return nil, err }
	}
	if strings.TrimSpace(overrideDir) != "" {
		if err := c.applyDir(overrideDir); err != nil { return nil, err }
	}
	return c, nil
}

func (c *Catalog) Lang() string { return c.lang }

func (c *Catalog) loadEmbedded(lang string) error {
	raw, err := fs.ReadFile(defaultFiles, "messages."+lang+".yaml")
	if err != nil {
		return fmt.Errorf("no embedded messages for %q: %w", lang, err)
	}
	return c.applyYAML(raw)
}

func (c *Catalog) applyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read messages dir: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() { continue }
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" { files = append(files, e.Name()) }
	}
	sort.Strings(files)
	seen := make(map[string]string) // key -> file
	for _, name := range files {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil { return fmt.Errorf("read %s: %w", name, err) }
		flat, err := parseYAMLToFlat(b)
		if err != nil { return fmt.Errorf("parse %s: %w", name, err) }
		for k := range flat {
			if prev, ok := seen[k]; ok {
				return fmt.Errorf("duplicate override key %q in %s and %s", k, prev, name)
			}
			seen[k] = name
		}
		c.mu.Lock()
		for k, v := range flat { c.data[k] = v }
		c.mu.Unlock()
	}
	return nil
}

func (c *Catalog) applyYAML(b []byte) error {
	flat, err := parseYAMLToFlat(b)
	if err != nil { return err }
	c.mu.Lock()
	for k, v := range flat { c.data[k] = v }
	c.mu.Unlock()
	return nil
}

func parseYAMLToFlat(b []byte) (map[string]string, error) {
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil { return nil, err }
	flat := make(map[string]string)
	if err := flattenStrings(m, "", flat); err != nil { return nil, err }
	return flat, nil
}

func flattenStrings(src any, prefix string, out map[string]string) error {
	switch v := src.(type) {
	case map[string]any:
		for k, vv := range v {
			key := k
			if prefix != "" { key = prefix + "." + k }
			if err := flattenStrings(vv, key, out); err != nil { return err }
		}
		return nil
	case string:
		if prefix == "" { return errors.New("string value without key") }
		out[prefix] = v
		return nil
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported value at %s: %T", prefix, v)
	}
}

// Render executes the template for key. Unknown keys and missing fields are errors.
func (c *Catalog) Render(key string, data any) (string, error) {
	c.mu.RLock()
	tpl, ok := c.data[strings.TrimSpace(key)]
	c.mu.RUnlock()
	if !ok || strings.TrimSpace(tpl) == "" {
		return "", fmt.Errorf("template not found: %s", key)
	}
	t, err := template.New(key).Option("missingkey=error").Parse(tpl)
	if err != nil { return "", err }
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil { return "", err }
	return b.String(), nil
}

// Text renders key or returns fallback on any error.
func (c *Catalog) Text(key, fallback string, data any) string {
	if c == nil { return fallback }
	s, err := c.Render(key, data)
	if err != nil { return fallback }
	return s
}

// GameMessages renders victory and stalemate lines for the session controller.
type GameMessages struct {
	cat *Catalog
}

func NewGameMessages(cat *Catalog) GameMessages { return GameMessages{cat: cat} }

func (m GameMessages) Victory(winner domain.Color) string {
	return m.cat.Text("game.victory", winner.String()+" wins!", map[string]any{"Winner": winner.String()})
}

func (m GameMessages) Stalemate() string {
	return m.cat.Text("game.stalemate", "Stalemate!", nil)
}
