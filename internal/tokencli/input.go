package tokencli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

var errInvalidUTF8 = errors.New("content is not valid UTF-8")

// FileError reports that an argument named an existing path which could not
// be read as text.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// ResolveInput returns the text to count for arg. When arg names an existing
// path the file's contents are returned, otherwise arg itself. Any argument
// that happens to match a path is read, even when the caller meant it as
// literal text.
func ResolveInput(arg string) (text string, fromFile bool, err error) {
	if _, err := os.Stat(arg); err != nil {
		return arg, false, nil
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return "", true, &FileError{Path: arg, Err: err}
	}
	if !utf8.Valid(data) {
		return "", true, &FileError{Path: arg, Err: errInvalidUTF8}
	}
	return normalizeNewlines(string(data)), true, nil
}

// normalizeNewlines folds CRLF and lone CR line endings to LF, the way text
// mode reads are seen by the tokenizer.
func normalizeNewlines(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
