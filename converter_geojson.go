package pt2itp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	geojson "github.com/paulmach/go.geojson"
	"github.com/pkg/errors"
)

const maxLineSize = 64 * 1024 * 1024

// WriteLineDelimited writes features as line-delimited GeoJSON (one feature per line)
func WriteLineDelimited(w io.Writer, feats []*geojson.Feature) error {
	buf := bufio.NewWriter(w)
	for i, feat := range feats {
		b, err := feat.MarshalJSON()
		if err != nil {
			return errors.Wrapf(err, "Can't convert feature %d to geojson format", i)
		}
		if _, err := buf.Write(b); err != nil {
			return err
		}
		if err := buf.WriteByte('\n'); err != nil {
			return err
		}
	}
	return buf.Flush()
}

// WriteSplitFeatures writes split features as line-delimited JSON
func WriteSplitFeatures(w io.Writer, feats []*SplitFeature) error {
	buf := bufio.NewWriter(w)
	for _, feat := range feats {
		b, err := json.Marshal(feat)
		if err != nil {
			return errors.Wrapf(err, "Can't convert split feature %d to json format", feat.ID)
		}
		if _, err := buf.Write(b); err != nil {
			return err
		}
		if err := buf.WriteByte('\n'); err != nil {
			return err
		}
	}
	return buf.Flush()
}

// scanLines calls fn for every non-empty line of r
func scanLines(r io.Reader, fn func(lineNum int, line []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(lineNum, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// ReadLineDelimited reads line-delimited GeoJSON features. A leading record separator (RFC 8142) is tolerated
func ReadLineDelimited(r io.Reader) ([]*geojson.Feature, error) {
	feats := []*geojson.Feature{}
	err := scanLines(r, func(lineNum int, line []byte) error {
		feat, err := geojson.UnmarshalFeature(bytes.TrimPrefix(line, []byte{0x1e}))
		if err != nil {
			return errors.Wrapf(err, "Can't parse feature on line %d", lineNum)
		}
		feats = append(feats, feat)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return feats, nil
}

// ReadSplitFeatures reads line-delimited split features
func ReadSplitFeatures(r io.Reader) ([]*SplitFeature, error) {
	feats := []*SplitFeature{}
	err := scanLines(r, func(lineNum int, line []byte) error {
		feat := &SplitFeature{}
		if err := json.Unmarshal(line, feat); err != nil {
			return errors.Wrapf(err, "Can't parse split feature on line %d", lineNum)
		}
		feats = append(feats, feat)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return feats, nil
}
