package datadragon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/ramonehamilton/LoR-Companion/internal/lor/cards"
)

// Set files are named after their set, which may carry a suffix for
// mid-set expansions (set6cde, set7b).
var setFilePattern = regexp.MustCompile(`^set(\d+)([a-z]*)-([a-z]{2}_[a-z]{2})\.json$`)

var setNamePattern = regexp.MustCompile(`^[1-9]\d*[a-z]*$`)

// ValidSetName reports whether name identifies a set bundle, such as "6"
// or "6cde".
func ValidSetName(name string) bool {
	return setNamePattern.MatchString(name)
}

// SetFiles lists the set data files in dir for locale, ordered by set number
// and then by suffix, so set6 precedes set6cde.
func SetFiles(dir, locale string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read set directory: %w", err)
	}

	type setFile struct {
		number int
		suffix string
		path   string
	}
	var files []setFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := setFilePattern.FindStringSubmatch(e.Name())
		if m == nil || (locale != "" && m[3] != locale) {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		files = append(files, setFile{number: n, suffix: m[2], path: filepath.Join(dir, e.Name())})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].number != files[j].number {
			return files[i].number < files[j].number
		}
		return files[i].suffix < files[j].suffix
	})

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

// IsSetFile reports whether name looks like a set data file.
func IsSetFile(name string) bool {
	return setFilePattern.MatchString(filepath.Base(name))
}

// ReadRecords decodes one set data file into raw card records.
func ReadRecords(path string) ([]map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var records []map[string]interface{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

// LoadRecords reads every set file in dir in set order.
func LoadRecords(dir, locale string) ([]map[string]interface{}, error) {
	paths, err := SetFiles(dir, locale)
	if err != nil {
		return nil, err
	}

	var all []map[string]interface{}
	for _, p := range paths {
		records, err := ReadRecords(p)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

// LoadDir builds a catalog from the set files in dir.
func LoadDir(dir, locale string) (*cards.Catalog, error) {
	records, err := LoadRecords(dir, locale)
	if err != nil {
		return nil, err
	}
	return cards.NewCatalog(records), nil
}

// Globals holds the shared vocabularies of the globals file.
type Globals struct {
	Regions  []Named `json:"regions"`
	Keywords []Named `json:"keywords"`
	Rarities []Named `json:"rarities"`
	Sets     []Named `json:"sets"`
}

// Named is a vocabulary entry of the globals file.
type Named struct {
	Name             string `json:"name"`
	NameRef          string `json:"nameRef"`
	Abbreviation     string `json:"abbreviation,omitempty"`
	Description      string `json:"description,omitempty"`
	IconAbsolutePath string `json:"iconAbsolutePath,omitempty"`
}

// LoadGlobals reads a globals file.
func LoadGlobals(path string) (*Globals, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read globals: %w", err)
	}

	var g Globals
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to parse globals: %w", err)
	}
	return &g, nil
}
