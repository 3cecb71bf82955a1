package document

import (
	"fmt"
	"strings"

	"github.com/minios-linux/xliffmerge/message"
)

// Format identifies one of the supported document formats.
type Format string

const (
	XLIFF12 Format = "xlf"
	XLIFF20 Format = "xlf2"
	XMB     Format = "xmb"
	XTB     Format = "xtb"
)

// Formats lists all formats in default detection order.
var Formats = []Format{XLIFF12, XLIFF20, XMB, XTB}

// ParseFormat converts a configuration name into a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "xlf", "xliff", "xlf1", "xliff1.2":
		return XLIFF12, nil
	case "xlf2", "xliff2", "xliff2.0":
		return XLIFF20, nil
	case "xmb":
		return XMB, nil
	case "xtb":
		return XTB, nil
	}
	return "", fmt.Errorf("unknown format %q (valid: xlf, xlf2, xmb)", name)
}

// Extension returns the file extension of language documents in this
// format. Both XLIFF dialects use .xlf.
func (f Format) Extension() string {
	switch f {
	case XMB:
		return "xmb"
	case XTB:
		return "xtb"
	}
	return "xlf"
}

// TranslationFormat is the format translations of a master in f are stored
// in. XMB masters pair with XTB files.
func (f Format) TranslationFormat() Format {
	if f == XMB {
		return XTB
	}
	return f
}

// Syntax returns the inline markup syntax of the format.
func (f Format) Syntax() message.Syntax {
	switch f {
	case XLIFF20:
		return message.XLIFF20
	case XMB:
		return message.XMB
	case XTB:
		return message.XTB
	}
	return message.XLIFF12
}

func (f Format) String() string { return string(f) }
