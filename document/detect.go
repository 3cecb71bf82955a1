package document

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// detectionOrder returns the formats to try for a file, biased by its
// extension.
func detectionOrder(path string) []Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xmb":
		return []Format{XMB, XTB, XLIFF12, XLIFF20}
	case ".xtb":
		return []Format{XTB, XMB, XLIFF12, XLIFF20}
	}
	return Formats
}

// DetectFormat returns the first format the data parses as.
func DetectFormat(data []byte, path string) (Format, error) {
	var errs []string
	for _, f := range detectionOrder(path) {
		_, err := Parse(f, data, path, "")
		if err == nil {
			return f, nil
		}
		errs = append(errs, err.Error())
	}
	return "", fmt.Errorf("%s: %w (%s)", path, ErrUnidentifiableFormat, strings.Join(errs, "; "))
}

// ParseAuto detects the format and parses the document.
func ParseAuto(data []byte, path, enc string) (*Document, error) {
	f, err := DetectFormat(data, path)
	if err != nil {
		return nil, err
	}
	return Parse(f, data, path, enc)
}

var languageInFilenameRE = regexp.MustCompile(`^.+\.([a-zA-Z]{2,3}(?:[-_][a-zA-Z0-9]{2,8})*)\.[a-zA-Z0-9]+$`)

// GuessLanguageFromFilename extracts the language of "name.lang.ext"
// files, e.g. "de-CH" from "messages.de-CH.xtb".
func GuessLanguageFromFilename(path string) string {
	m := languageInFilenameRE.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return ""
	}
	return strings.ReplaceAll(m[1], "_", "-")
}
