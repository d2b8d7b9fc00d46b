package launcher

import (
	"bufio"
	"os"
	"regexp"
	"strings"

	"lukasolson.net/pylauncher/common"
)

// Manifest is a parsed requirements file. Packages holds requirement
// specifiers, Options holds pip option lines such as --index-url.
type Manifest struct {
	Path     string
	Packages []string
	Options  []string
}

var inlineComment = regexp.MustCompile(`\s+#.*$`)

func ReadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m := &Manifest{Path: path}

	var pending string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		// pip joins lines ending in a backslash.
		if strings.HasSuffix(line, `\`) {
			pending += strings.TrimSuffix(line, `\`)
			continue
		}
		line = pending + line
		pending = ""

		m.add(line)
	}
	if pending != "" {
		m.add(pending)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manifest) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	line = strings.TrimSpace(inlineComment.ReplaceAllString(line, ""))

	if strings.HasPrefix(line, "-") {
		m.Options = append(m.Options, line)
		return
	}
	m.Packages = append(m.Packages, line)
}

// Empty reports whether pip would have nothing to do.
func (m *Manifest) Empty() bool {
	return len(m.Packages) == 0 && len(m.Options) == 0
}

// EnsureManifest creates an empty manifest at path when none exists and
// reports whether it did.
func EnsureManifest(path string) (bool, error) {
	return common.CreateEmptyFile(path)
}
