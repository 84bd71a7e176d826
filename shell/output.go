package shell

import (
	"encoding/json"

	"github.com/abiosoft/ishell"

	"github.com/inkstone/handsynth/hierarchy"
	"github.com/inkstone/handsynth/store"
)

// SampleJSON describes a stored sample.
type SampleJSON struct {
	WriterID         string            `json:"writer_id"`
	SampleID         string            `json:"sample_id"`
	Text             string            `json:"text"`
	RecoveredText    string            `json:"recovered_text"`
	Divider          float64           `json:"divider"`
	PredictionOffset int               `json:"prediction_offset"`
	Points           int               `json:"points"`
	Words            []string          `json:"words"`
	Degenerates      []string          `json:"degenerates,omitempty"`
	Meta             map[string]string `json:"meta,omitempty"`
}

// SampleToJSON summarizes smp.
func (ctx *ShellCtxt) SampleToJSON(smp *hierarchy.Sample) SampleJSON {
	out := SampleJSON{
		WriterID:         smp.WriterID,
		SampleID:         smp.SampleID,
		Text:             smp.Text,
		RecoveredText:    smp.RecoverText(ctx.Vocab),
		Divider:          smp.Divider,
		PredictionOffset: smp.PredictionOffset,
		Points:           smp.Points(),
		Words:            []string{},
		Meta:             smp.Meta,
	}
	for _, w := range smp.Words {
		out.Words = append(out.Words, w.Text)
	}
	for _, ref := range smp.Degenerates() {
		out.Degenerates = append(out.Degenerates, ref.String())
	}
	return out
}

func printJSON(c *ishell.Context, v interface{}) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	c.Println(string(output))
	return nil
}

func displayEntry(c *ishell.Context, e store.Entry) {
	flag := " "
	if e.Degenerates > 0 {
		flag = "!"
	}
	c.Printf("[%s]\t%s\t%4d pts\t%q\n", flag, e.SampleID, e.Points, e.Text)
}
