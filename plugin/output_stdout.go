package plugin

import (
	"encoding/json"
	"io"
	"os"
)

// StdOutput writes one JSON report per line to standard output.
type StdOutput struct {
	w io.Writer
}

func NewStdOutput() *StdOutput {
	return &StdOutput{w: os.Stdout}
}

func (o *StdOutput) Write(report *PairReport) (err error) {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	if _, err = o.w.Write(data); err != nil {
		return err
	}
	// make it more readable
	_, err = o.w.Write([]byte{'\n'})
	return err
}

func (o *StdOutput) Close() error {
	return nil
}
