package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/inkstone/handsynth/capture"
	"github.com/inkstone/handsynth/config"
	"github.com/inkstone/handsynth/dataset"
	"github.com/inkstone/handsynth/log"
	"github.com/inkstone/handsynth/store"
	"github.com/inkstone/handsynth/stroke"
	"github.com/inkstone/handsynth/vocab"
)

func main() {
	inputName := flag.String("i", "", "capture directory, or .rm page for -e c")
	outputName := flag.String("o", "", "output file")
	writer := flag.String("w", "", "writer id")
	storeDir := flag.String("store", "", "sample store (default from config)")
	text := flag.String("text", "", "text of .rm pages without a .txt file")
	failFast := flag.Bool("failfast", false, "stop at the first failing capture")
	extract := flag.String("e", "", "mode: b - build samples, t - recover sample texts, c - convert .rm to capture json")
	flag.Parse()

	log.InitLog()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *storeDir != "" {
		cfg.StoreDir = *storeDir
	}

	switch *extract {
	case "t":
		err = recoverTexts(cfg, *writer, *outputName)
	case "c":
		err = convertPage(*inputName, *outputName, *text)
	case "":
		fallthrough
	case "b":
		err = build(cfg, *inputName, *writer, *text, *failFast)
	default:
		err = fmt.Errorf("unknown mode %q", *extract)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func build(cfg *config.Config, inputName, writer, text string, failFast bool) error {
	if inputName == "" {
		return errors.New("missing capture directory")
	}
	if writer == "" {
		return errors.New("missing writer id")
	}

	st, err := store.Open(cfg.StoreDir)
	if err != nil {
		return err
	}
	files, err := dataset.Collect(inputName)
	if err != nil {
		return err
	}

	dc := cfg.DatasetConfig(writer)
	dc.Text = text
	dc.FailFast = failFast
	report, err := dataset.Build(context.Background(), st, vocab.Default(), files, dc)
	if err != nil {
		return err
	}

	for _, r := range report.Results {
		if r.Err != nil {
			fmt.Printf("FAIL %s: %v\n", r.File, r.Err)
			continue
		}
		fmt.Printf("ok   %s -> %s/%s\n", r.File, writer, r.SampleID)
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d captures failed", report.Failed, len(report.Results))
	}
	return nil
}

// recoverTexts writes, per sample, the stored text and the text read back
// from the term flags.
func recoverTexts(cfg *config.Config, writer, outputName string) error {
	if writer == "" {
		return errors.New("missing writer id")
	}
	if outputName == "" {
		outputName = writer + ".txt"
	}

	st, err := store.Open(cfg.StoreDir)
	if err != nil {
		return err
	}
	samples, err := st.LoadWriter(writer)
	if err != nil {
		return err
	}

	f, err := os.Create(outputName)
	if err != nil {
		return err
	}
	defer f.Close()

	v := vocab.Default()
	for _, smp := range samples {
		recovered := smp.RecoverText(v)
		mark := ""
		if recovered != strings.ReplaceAll(smp.Text, " ", "") {
			mark = "\t*"
		}
		fmt.Fprintf(f, "%s\t%s\t%s%s\n", smp.SampleID, smp.Text, recovered, mark)
	}
	return nil
}

func convertPage(inputName, outputName, text string) error {
	if inputName == "" {
		return errors.New("missing input file")
	}
	if outputName == "" {
		nameOnly := strings.TrimSuffix(inputName, filepath.Ext(inputName))
		outputName = nameOnly + ".json"
	}

	c, err := capture.Load(inputName, text, stroke.EndFlag)
	if err != nil {
		return err
	}

	outputFile, err := os.Create(outputName)
	if err != nil {
		return fmt.Errorf("can't create outputfile %w", err)
	}
	defer outputFile.Close()
	return capture.WriteJSON(outputFile, c)
}
