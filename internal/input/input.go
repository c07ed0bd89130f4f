// Package input reads feature and job files. YAML is a superset of JSON, so
// both formats go through the same decoder.
package input

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"opsched/internal/sequence"
	"opsched/internal/shop"
)

// FeatureFile is either a bare list of features or {features: [...]}.
type FeatureFile struct {
	Features []sequence.Feature `yaml:"features"`
}

// JobFile is either a bare list of jobs or {jobs: [...], machines: [...]}.
type JobFile struct {
	Jobs     []shop.Job `yaml:"jobs"`
	Machines []string   `yaml:"machines"`
}

func LoadFeatures(path string) ([]sequence.Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeFeatures(bytes.NewReader(data))
}

func DecodeFeatures(r io.Reader) ([]sequence.Feature, error) {
	node, err := decodeNode(r)
	if err != nil {
		return nil, err
	}
	var fs []sequence.Feature
	if node.Kind == yaml.SequenceNode {
		err = node.Decode(&fs)
	} else {
		var f FeatureFile
		err = node.Decode(&f)
		fs = f.Features
	}
	if err != nil {
		return nil, fmt.Errorf("decode features: %w", err)
	}
	return fs, nil
}

func LoadJobs(path string) (JobFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return JobFile{}, err
	}
	return DecodeJobs(bytes.NewReader(data))
}

func DecodeJobs(r io.Reader) (JobFile, error) {
	node, err := decodeNode(r)
	if err != nil {
		return JobFile{}, err
	}
	var jf JobFile
	if node.Kind == yaml.SequenceNode {
		err = node.Decode(&jf.Jobs)
	} else {
		err = node.Decode(&jf)
	}
	if err != nil {
		return JobFile{}, fmt.Errorf("decode jobs: %w", err)
	}
	return jf, nil
}

func decodeNode(r io.Reader) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty input")
		}
		return nil, err
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) == 1 {
		return doc.Content[0], nil
	}
	return &doc, nil
}
