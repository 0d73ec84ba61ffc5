package output

import (
	"bytes"
)

// IDsFormatter formats output as one tweak id per line.
// It produces a simple list of ids suitable for piping back into
// apply or restore invocations. For a batch, the result ids are
// written instead.
type IDsFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *IDsFormatter) Format(w *bytes.Buffer, d *Document) error {
	if d.Batch != nil {
		for _, res := range d.Batch.Results {
			w.WriteString(res.ID)
			w.WriteByte('\n')
		}
		return nil
	}

	for _, t := range d.Tweaks {
		w.WriteString(t.ID)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("ids", func() Formatter {
		return &IDsFormatter{}
	})
}

// Ensure IDsFormatter implements Formatter.
var _ Formatter = (*IDsFormatter)(nil)

// NullFormatter formats output as null-delimited tweak ids.
// It produces ids separated by null bytes (0x00), suitable for use with
// xargs -0 or other tools that support null-delimited input.
type NullFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *NullFormatter) Format(w *bytes.Buffer, d *Document) error {
	if d.Batch != nil {
		for _, res := range d.Batch.Results {
			w.WriteString(res.ID)
			w.WriteByte(0) // Null byte delimiter
		}
		return nil
	}

	for _, t := range d.Tweaks {
		w.WriteString(t.ID)
		w.WriteByte(0) // Null byte delimiter
	}
	return nil
}

func init() {
	Register("null", func() Formatter {
		return &NullFormatter{}
	})
}

// Ensure NullFormatter implements Formatter.
var _ Formatter = (*NullFormatter)(nil)
