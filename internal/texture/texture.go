// Package texture implements the material/texture pair table shared with
// the landscape renderer, grounded in spec §4.P. Index 0 is sky. Loading
// follows the same INI-style `<key>=<value>` parsing the rest of the
// core's text sections use, split on "-" for the material/texture pair.
package texture

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/legacyclonk/openworld-core/internal/logging"
)

const maxEntries = 255

// MaterialLookup resolves a material by name to its table index.
type MaterialLookup interface {
	MaterialIndex(name string) (int, bool)
}

// Entry is one pixel-index binding.
type Entry struct {
	Material     string
	Texture      string
	MaterialIdx  int
	bound        bool
}

// Map is the indexed pixel-index -> (material, texture) table.
type Map struct {
	entries          [maxEntries + 1]Entry
	OverloadMaterials bool
	OverloadTextures  bool
	entriesAdded      bool
	log               logging.Logger
}

// New builds an empty texture map. A nil logger falls back to a no-op
// zap-backed logger.
func New(log logging.Logger) *Map {
	if log == nil {
		log = logging.New(zap.NewNop())
	}
	return &Map{log: log}
}

// Load parses `<index>=<material>-<texture>` lines, plus the two
// overload flags as `OverloadMaterials=1` / `OverloadTextures=1`.
func (m *Map) Load(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "[") || strings.HasPrefix(line, ";") {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		val := strings.TrimSpace(line[eq+1:])
		switch key {
		case "OverloadMaterials":
			m.OverloadMaterials = val == "1"
			continue
		case "OverloadTextures":
			m.OverloadTextures = val == "1"
			continue
		}
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 1 || idx > maxEntries {
			m.log.Warn("texture: skipping malformed index: %s", line)
			continue
		}
		dash := strings.IndexByte(val, '-')
		if dash < 0 {
			m.log.Warn("texture: missing material-texture separator: %s", line)
			continue
		}
		m.entries[idx] = Entry{Material: val[:dash], Texture: val[dash+1:]}
	}
	return sc.Err()
}

// AddEntry sets a pixel index at runtime, marking the table dirty so a
// scenario save writes it back.
func (m *Map) AddEntry(idx int, material, tex string) error {
	if idx < 1 || idx > maxEntries {
		return fmt.Errorf("texture: index %d out of range", idx)
	}
	m.entries[idx] = Entry{Material: material, Texture: tex}
	m.entriesAdded = true
	return nil
}

// EntriesAdded reports whether AddEntry has been called since load.
func (m *Map) EntriesAdded() bool { return m.entriesAdded }

// Init resolves every entry's material name against the live material
// table, nulling and warning on anything missing.
func (m *Map) Init(materials MaterialLookup) {
	for i := 1; i <= maxEntries; i++ {
		e := &m.entries[i]
		if e.Material == "" {
			continue
		}
		idx, ok := materials.MaterialIndex(e.Material)
		if !ok {
			m.log.Warn("texture: material not found, nulling entry %d (%s)", i, e.Material)
			*e = Entry{}
			continue
		}
		e.MaterialIdx = idx
		e.bound = true
	}
}

// At returns the entry for a pixel index and whether that index holds a
// material. Index 0 (sky) is always zero and always reported present.
func (m *Map) At(idx int) (Entry, bool) {
	if idx < 0 || idx > maxEntries {
		return Entry{}, false
	}
	e := m.entries[idx]
	return e, e.Material != "" || idx == 0
}
