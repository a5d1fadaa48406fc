// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tfctl/snapdiff/internal/source"
)

// event is the document emitted by the json and yaml formats.
type event struct {
	Event    string    `json:"event" yaml:"event"`
	Target   string    `json:"target" yaml:"target"`
	From     string    `json:"from,omitempty" yaml:"from,omitempty"`
	To       string    `json:"to,omitempty" yaml:"to,omitempty"`
	Notice   string    `json:"notice,omitempty" yaml:"notice,omitempty"`
	Report   string    `json:"report,omitempty" yaml:"report,omitempty"`
	Versions []version `json:"versions,omitempty" yaml:"versions,omitempty"`
}

type version struct {
	Location   string    `json:"location" yaml:"location"`
	ModifyTime time.Time `json:"modify_time" yaml:"modify_time"`
	Size       int64     `json:"size" yaml:"size"`
	Digest     string    `json:"digest,omitempty" yaml:"digest,omitempty"`
}

func diffEvent(d Difference) event {
	return event{
		Event:  "diff",
		Target: d.Target,
		From:   d.From,
		To:     d.To,
		Notice: Notice(d.From, d.To),
		Report: d.Report,
	}
}

func versionsEvent(target string, records []source.Record, opts Options) event {
	e := event{Event: "versions", Target: target, Versions: []version{}}
	for _, rec := range records {
		e.Versions = append(e.Versions, version{
			Location:   rec.Location,
			ModifyTime: opts.stamp(rec.ModTime),
			Size:       rec.Size,
			Digest:     rec.Digest,
		})
	}
	return e
}

// jsonReporter writes one JSON object per line.
type jsonReporter struct {
	enc  *json.Encoder
	opts Options
}

func newJSONReporter(w io.Writer, opts Options) *jsonReporter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &jsonReporter{enc: enc, opts: opts}
}

func (r *jsonReporter) Difference(d Difference) error {
	return r.enc.Encode(diffEvent(d))
}

func (r *jsonReporter) Versions(target string, records []source.Record) error {
	return r.enc.Encode(versionsEvent(target, records, r.opts))
}

// yamlReporter writes one YAML document per event. Each document carries its
// own "---" so streams from several reporters concatenate cleanly.
type yamlReporter struct {
	w    io.Writer
	opts Options
}

func (r *yamlReporter) write(e event) error {
	out, err := yaml.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal yaml: %w", err)
	}
	if _, err := io.WriteString(r.w, "---\n"); err != nil {
		return err
	}
	_, err = r.w.Write(out)
	return err
}

func (r *yamlReporter) Difference(d Difference) error {
	return r.write(diffEvent(d))
}

func (r *yamlReporter) Versions(target string, records []source.Record) error {
	return r.write(versionsEvent(target, records, r.opts))
}
