package models

import (
	"bytes"
	"fmt"
	"regexp"
)

var objStatement = regexp.MustCompile(`(?m)^\s*(v|f)\s`)

// DecodeModel parses a GLB, glTF JSON, STL or OBJ garment held in memory,
// choosing the format from the data itself.
func DecodeModel(data []byte, name string) (*Mesh, error) {
	text := bytes.TrimLeft(data, " \t\r\n")
	switch {
	case bytes.HasPrefix(data, []byte("glTF")), bytes.HasPrefix(text, []byte("{")):
		return NewGLTFLoader().LoadBytes(data, name)
	case stlSizeMatches(data), bytes.HasPrefix(text, []byte("solid")):
		return NewSTLLoader().LoadBytes(data, name)
	case objStatement.Match(data):
		return NewOBJLoader().LoadBytes(data, name)
	case len(data) >= stlHeaderSize:
		return NewSTLLoader().LoadBytes(data, name)
	}
	return nil, fmt.Errorf("%s: unrecognized model format", name)
}
