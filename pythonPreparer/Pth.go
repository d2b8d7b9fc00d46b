package pythonPreparer

import (
	"bytes"
	"os"
	"strings"

	"lukasolson.net/pylauncher/common"
)

// HasSiteImport reports whether contents already carries an active
// `import site` line, ignoring trailing comments. The commented
// `#import site` shipped with the embeddable distribution does not count.
func HasSiteImport(contents []byte) bool {
	for _, line := range strings.Split(string(contents), "\n") {
		line, _, _ = strings.Cut(line, "#")
		if strings.TrimSpace(line) == common.SiteImportDirective {
			return true
		}
	}
	return false
}

// EnableSiteImport appends `import site` to a ._pth file unless it is
// already active. The file is replaced as a whole. It reports whether the
// file changed.
func EnableSiteImport(path string) (bool, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	if HasSiteImport(contents) {
		return false, nil
	}

	newline := "\n"
	if bytes.Contains(contents, []byte("\r\n")) {
		newline = "\r\n"
	}

	var buf bytes.Buffer
	buf.Write(contents)
	if len(contents) > 0 && !bytes.HasSuffix(contents, []byte("\n")) {
		buf.WriteString(newline)
	}
	buf.WriteString(common.SiteImportDirective + newline)

	if err := common.ReplaceFile(path, buf.Bytes()); err != nil {
		return false, err
	}
	return true, nil
}
