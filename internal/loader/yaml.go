package loader

import (
	"bytes"
	"errors"
	"io"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// yamlLine pulls the line number out of yaml.v3 syntax errors, which
// carry no structured position.
var yamlLine = regexp.MustCompile(`line (\d+)`)

// ParseYAML parses a YAML document. Only the first document of a stream
// is read.
func ParseYAML(data []byte, filename string) (*Document, error) {
	var root yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errorf(ErrCodeParseFailed, Position{File: filename}, "empty document")
		}
		pos := Position{File: filename}
		if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
			pos.Line, _ = strconv.Atoi(m[1])
		}
		return nil, errorf(ErrCodeParseFailed, pos, "%v", err)
	}

	n, err := fromYAML(&root, filename)
	if err != nil {
		return nil, err
	}
	return parseDocument(n, filename)
}
