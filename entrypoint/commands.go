package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/corpus"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/pipeline"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/pos"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/types"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "tagger",
		Short:         "Hidden Markov model part-of-speech tagger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newTagCommand(), newEvaluateCommand(), newServeCommand())
	return root
}

type tagOptions struct {
	modelOptions
	testFile   string
	outputFile string
}

func newTagCommand() *cobra.Command {
	var opts tagOptions
	cmd := &cobra.Command{
		Use:   "tag [training files...]",
		Short: "Train on tagged files and tag a test file",
		Long: `Estimates a hidden Markov model from "word : tag" training files and writes the most
probable tag of every token in the test file, one "word : tag" line per token. Test
sentences end at lines holding a single ".".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTag(cmd, args, &opts)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&opts.testFile, "testfile", "", "untagged test file, one or more tokens per line")
	cmd.Flags().StringVar(&opts.outputFile, "outputfile", "-", "output file, - for stdout")
	_ = cmd.MarkFlagRequired("testfile")
	return cmd
}

func runTag(cmd *cobra.Command, args []string, opts *tagOptions) error {
	ctx := cmd.Context()
	cfg, err := opts.config(cmd)
	if err != nil {
		return logged(err, "Invalid configuration")
	}
	sources, err := opts.sources(args)
	if err != nil {
		return logged(err, "No training data")
	}
	opener, err := newOpener(append(sources, opts.testFile)...)
	if err != nil {
		return logged(err, "Could not reach S3")
	}
	trained, err := train(ctx, opener, cfg, sources, opts.combinedFile)
	if err != nil {
		return logged(err, "Failed to estimate model")
	}
	text, err := opener.ReadAll(ctx, opts.testFile)
	if err != nil {
		return logged(err, "Failed to read test file")
	}

	res := <-pipeline.New(trained.params)(ctx, pipeline.Request{Tid: uuid.NewString(), Text: string(text)})
	if res.Err != nil {
		return logged(res.Err, "Tagging failed")
	}
	return writeOutput(cmd, opts.outputFile, func(w io.Writer) error {
		return corpus.WriteTagged(w, res.Pairs(cfg.Boundary))
	})
}

type evaluateOptions struct {
	modelOptions
	goldFile   string
	outputFile string
	asJSON     bool
}

func newEvaluateCommand() *cobra.Command {
	var opts evaluateOptions
	cmd := &cobra.Command{
		Use:   "evaluate [training files...]",
		Short: "Train on tagged files and report accuracy against a gold tagged file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, args, &opts)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&opts.goldFile, "goldfile", "", `gold file in "word : tag" format`)
	cmd.Flags().StringVar(&opts.outputFile, "outputfile", "", "also write the predicted tags to this file")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the report as JSON")
	_ = cmd.MarkFlagRequired("goldfile")
	return cmd
}

func runEvaluate(cmd *cobra.Command, args []string, opts *evaluateOptions) error {
	ctx := cmd.Context()
	cfg, err := opts.config(cmd)
	if err != nil {
		return logged(err, "Invalid configuration")
	}
	sources, err := opts.sources(args)
	if err != nil {
		return logged(err, "No training data")
	}
	opener, err := newOpener(append(sources, opts.goldFile)...)
	if err != nil {
		return logged(err, "Could not reach S3")
	}
	trained, err := train(ctx, opener, cfg, sources, opts.combinedFile)
	if err != nil {
		return logged(err, "Failed to estimate model")
	}

	normalize, err := corpus.NewNormalizer(cfg.Normalization)
	if err != nil {
		return err
	}
	// blank lines are skipped the same way as in training files
	goldPairs, err := opener.LoadTrainingPairs(ctx, []string{opts.goldFile}, "", normalize)
	if err != nil {
		return logged(err, "Failed to read gold file")
	}

	sentences, gold := corpus.GoldSentences(goldPairs, cfg.Boundary)
	tagger := pos.NewTagger(trained.params.Decoder)
	var goldFlat, predicted []types.TaggedWord
	for i, sent := range sentences {
		tagged, err := tagger(sent)
		if err != nil {
			return logged(fmt.Errorf("sentence %d: %w", sent.Index, err), "Tagging failed")
		}
		goldFlat = append(goldFlat, gold[i]...)
		predicted = append(predicted, tagged...)
	}
	report, err := pos.Evaluate(goldFlat, predicted)
	if err != nil {
		return logged(err, "Evaluation failed")
	}

	if opts.outputFile != "" {
		err = writeOutput(cmd, opts.outputFile, func(w io.Writer) error {
			return corpus.WriteTagged(w, predicted)
		})
		if err != nil {
			return err
		}
	}
	if opts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			pos.Report
			Accuracy float64 `json:"accuracy"`
		}{report, report.Accuracy()})
	}
	return printReport(cmd.OutOrStdout(), report)
}

func printReport(out io.Writer, report pos.Report) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "accuracy\t%.4f\t(%d/%d)\n", report.Accuracy(), report.Correct, report.Tokens)
	fmt.Fprintln(w, "tag\tgold\tpredicted\tcorrect")
	for _, s := range report.PerTag {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", s.Tag, s.Gold, s.Predicted, s.Correct)
	}
	return w.Flush()
}

// writeOutput renders into memory and touches path only once rendering succeeded.
func writeOutput(cmd *cobra.Command, path string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	if path == "-" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return logged(err, "Failed to write output")
	}
	taggerLogger.Info().Str("path", path).Msg("Wrote output")
	return nil
}

func logged(err error, msg string) error {
	taggerLogger.Err(err).Msg(msg)
	return err
}
