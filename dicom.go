package main

import (
	"fmt"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// TagStatus tells callers which branch a lookup took.
type TagStatus int

const (
	TagFound TagStatus = iota
	TagNotPresent
	TagReadError
)

func (s TagStatus) String() string {
	switch s {
	case TagFound:
		return "found"
	case TagNotPresent:
		return "not present"
	case TagReadError:
		return "read error"
	default:
		return fmt.Sprintf("TagStatus(%d)", int(s))
	}
}

// TagResult is the outcome of one tag lookup. Value is only meaningful for
// TagFound and Err only for TagReadError.
type TagResult struct {
	Status TagStatus
	Value  string
	Err    error
}

func Found(value string) TagResult { return TagResult{Status: TagFound, Value: value} }
func NotPresent() TagResult        { return TagResult{Status: TagNotPresent} }
func ReadError(err error) TagResult {
	return TagResult{Status: TagReadError, Err: err}
}

// TagPath addresses a tag. A single element is a top-level tag; longer paths
// descend through sequences, first matching item wins.
type TagPath []tag.Tag

func (p TagPath) String() string {
	parts := make([]string, len(p))
	for i, t := range p {
		parts[i] = fmt.Sprintf("(%04x,%04x)", t.Group, t.Element)
	}
	return strings.Join(parts, ".")
}

var (
	ModalityPath           = TagPath{tag.Modality}
	SeriesDescriptionPath  = TagPath{tag.SeriesDescription}
	SegmentLabelPath       = TagPath{tag.SegmentLabel}
	NestedSegmentLabelPath = TagPath{tag.SegmentSequence, tag.SegmentLabel}
)

// TagReader looks up a single tag in a file.
type TagReader interface {
	Lookup(file string, path TagPath) TagResult
}

// nativeTagReader parses files in-process. The last parsed dataset is kept so
// consecutive lookups on the same file only parse it once.
type nativeTagReader struct {
	lastPath string
	lastData *dicom.Dataset
	lastErr  error
}

func newNativeTagReader() *nativeTagReader {
	return &nativeTagReader{}
}

func (r *nativeTagReader) Lookup(file string, path TagPath) TagResult {
	if len(path) == 0 {
		return NotPresent()
	}
	if file != r.lastPath {
		ds, err := safelyParseFile(file)
		r.lastPath = file
		r.lastData = ds
		r.lastErr = err
	}
	if r.lastErr != nil {
		return ReadError(r.lastErr)
	}
	return lookupElements(r.lastData.Elements, path)
}

// safelyParseFile turns panics raised inside the dicom parser into errors.
func safelyParseFile(file string) (ds *dicom.Dataset, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			ds = nil
			err = fmt.Errorf("failed to parse DICOM file %s: %v", file, panicErr)
		}
	}()

	dataset, err := dicom.ParseFile(file, nil, dicom.SkipPixelData())
	if err != nil {
		return nil, fmt.Errorf("failed to parse DICOM file %s: %w", file, err)
	}
	return &dataset, nil
}

func lookupElements(elems []*dicom.Element, path TagPath) TagResult {
	for _, elem := range elems {
		if elem == nil || elem.Tag != path[0] {
			continue
		}
		if len(path) == 1 {
			if v := elementValue(elem); v != "" {
				return Found(v)
			}
			return NotPresent()
		}
		if elem.Value == nil || elem.Value.ValueType() != dicom.Sequences {
			continue
		}
		items, ok := elem.Value.GetValue().([]*dicom.SequenceItemValue)
		if !ok {
			continue
		}
		for _, item := range items {
			nested, ok := item.GetValue().([]*dicom.Element)
			if !ok {
				continue
			}
			if res := lookupElements(nested, path[1:]); res.Status == TagFound {
				return res
			}
		}
	}
	return NotPresent()
}

// elementValue renders an element the way the tag dumper would: string values
// joined by backslash, anything else through the library's formatting with the
// surrounding brackets trimmed.
func elementValue(elem *dicom.Element) string {
	if elem.Value == nil {
		return ""
	}
	if elem.Value.ValueType() == dicom.Strings {
		vals, ok := elem.Value.GetValue().([]string)
		if !ok {
			return ""
		}
		return strings.TrimSpace(strings.Join(vals, `\`))
	}
	return strings.TrimSpace(strings.Trim(elem.Value.String(), "[]"))
}

// newTagReader picks the backend configured in cfg.
func newTagReader(cfg *Config, runner Runner) TagReader {
	if cfg.TagReader == TagReaderDcmdump {
		return &dcmdumpTagReader{bin: cfg.Dcmdump, runner: runner}
	}
	return newNativeTagReader()
}
