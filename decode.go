package linviz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the encoding of a dataset.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a format by file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%s: %w", path, ErrUnknownFormat)
}

// the raw* types mirror the input schema with pointers for required fields,
// so that a missing field can be told apart from a zero value

type rawDataset struct {
	Partitions  []rawPartition  `json:"Partitions" yaml:"Partitions"`
	Annotations []rawAnnotation `json:"Annotations" yaml:"Annotations"`
}

type rawPartition struct {
	History               []rawElement `json:"History" yaml:"History"`
	PartialLinearizations [][]rawStep  `json:"PartialLinearizations" yaml:"PartialLinearizations"`
}

type rawElement struct {
	ClientId    *int     `json:"ClientId" yaml:"ClientId"`
	Start       *float64 `json:"Start" yaml:"Start"`
	End         *float64 `json:"End" yaml:"End"`
	Description *string  `json:"Description" yaml:"Description"`
}

type rawAnnotation struct {
	ClientId        int      `json:"ClientId" yaml:"ClientId"`
	Tag             string   `json:"Tag" yaml:"Tag"`
	Start           *float64 `json:"Start" yaml:"Start"`
	End             *float64 `json:"End" yaml:"End"`
	Description     string   `json:"Description" yaml:"Description"`
	Details         string   `json:"Details" yaml:"Details"`
	BackgroundColor string   `json:"BackgroundColor" yaml:"BackgroundColor"`
	TextColor       string   `json:"TextColor" yaml:"TextColor"`
}

type rawStep struct {
	Index            *int   `json:"Index" yaml:"Index"`
	StateDescription string `json:"StateDescription" yaml:"StateDescription"`
}

// Decode reads a dataset and checks that every required field is present.
func Decode(r io.Reader, format Format) (Dataset, error) {
	var raw rawDataset
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&raw); err != nil {
			return Dataset{}, fmt.Errorf("error parsing dataset: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
			return Dataset{}, fmt.Errorf("error parsing dataset: %w", err)
		}
	default:
		return Dataset{}, fmt.Errorf("format %q: %w", format, ErrUnknownFormat)
	}
	return raw.dataset()
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(data []byte, format Format) (Dataset, error) {
	return Decode(bytes.NewReader(data), format)
}

// DecodeFile reads a dataset file, choosing the format by extension.
func DecodeFile(path string) (Dataset, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Dataset{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("error opening dataset: %w", err)
	}
	defer f.Close()
	return Decode(f, format)
}

func (raw rawDataset) dataset() (Dataset, error) {
	d := Dataset{
		Partitions:  make([]PartitionData, len(raw.Partitions)),
		Annotations: make([]Annotation, len(raw.Annotations)),
	}
	for pi, rp := range raw.Partitions {
		p := PartitionData{
			History:               make([]HistoryElement, len(rp.History)),
			PartialLinearizations: make([][]Step, len(rp.PartialLinearizations)),
		}
		for i, el := range rp.History {
			missing := missingFields(map[string]bool{
				"ClientId":    el.ClientId == nil,
				"Start":       el.Start == nil,
				"End":         el.End == nil,
				"Description": el.Description == nil,
			})
			if missing != "" {
				return Dataset{}, fmt.Errorf("partition %d: event %d: missing %s: %w",
					pi, i, missing, ErrDataContract)
			}
			p.History[i] = HistoryElement{
				ClientId:    *el.ClientId,
				Start:       *el.Start,
				End:         *el.End,
				Description: *el.Description,
			}
		}
		for li, lin := range rp.PartialLinearizations {
			steps := make([]Step, len(lin))
			for si, st := range lin {
				if st.Index == nil {
					return Dataset{}, fmt.Errorf("partition %d: linearization %d: step %d: missing Index: %w",
						pi, li, si, ErrDataContract)
				}
				steps[si] = Step{Index: *st.Index, StateDescription: st.StateDescription}
			}
			p.PartialLinearizations[li] = steps
		}
		d.Partitions[pi] = p
	}
	for i, ra := range raw.Annotations {
		if ra.Start == nil {
			return Dataset{}, fmt.Errorf("annotation %d: missing Start: %w", i, ErrDataContract)
		}
		a := Annotation{
			ClientId:        ra.ClientId,
			Tag:             ra.Tag,
			Start:           *ra.Start,
			End:             *ra.Start,
			Description:     ra.Description,
			Details:         ra.Details,
			BackgroundColor: ra.BackgroundColor,
			TextColor:       ra.TextColor,
		}
		if ra.End != nil {
			a.End = *ra.End
		}
		d.Annotations[i] = a
	}
	return d, nil
}

// missingFields lists the names flagged as missing in schema order.
func missingFields(flags map[string]bool) string {
	var names []string
	for _, name := range []string{"ClientId", "Start", "End", "Description"} {
		if flags[name] {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}
