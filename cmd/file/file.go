package file

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tphakala/stressnet-go/internal/classifier"
	"github.com/tphakala/stressnet-go/internal/conf"
	"github.com/tphakala/stressnet-go/internal/errors"
)

// Output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Result is the JSON form of a single file classification.
type Result struct {
	File          string    `json:"file"`
	Class         string    `json:"class"`
	Label         string    `json:"label"`
	Confidence    float32   `json:"confidence"`
	Probabilities []float32 `json:"probabilities"`
	Description   string    `json:"description"`
	Suggestion    string    `json:"suggestion"`
}

// Command creates a new file command for classifying a single audio file.
func Command(settings *conf.Settings) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "file [input.wav]",
		Short: "Analyze an audio file",
		Long:  "Classify a single audio file as stressed or not stressed.",
		Args:  cobra.ExactArgs(1), // the command expects exactly one argument
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != FormatTable && format != FormatJSON {
				return fmt.Errorf("unsupported output format %q, use %s or %s", format, FormatTable, FormatJSON)
			}

			c, err := classifier.New(settings)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			return Analyze(cmd, c, args[0], format)
		},
	}

	// Set up flags specific to the 'file' command
	cmd.Flags().StringVarP(&format, "format", "f", FormatTable, "Output format: table, json")

	return cmd
}

// Analyze classifies path with c and writes the result to the command's output.
func Analyze(cmd *cobra.Command, c *classifier.Classifier, path, format string) error {
	audio, err := os.ReadFile(path)
	if err != nil {
		return errors.New(err).
			Component("cli").
			Category(errors.CategoryFileIO).
			Context("operation", "read_input").
			Build()
	}

	prediction, err := c.Classify(cmd.Context(), audio, filepath.Ext(path))
	if err != nil {
		return err
	}

	result := Result{
		File:          filepath.Base(path),
		Class:         prediction.Class.Slug(),
		Label:         prediction.Class.Label(),
		Confidence:    prediction.Confidence(),
		Probabilities: prediction.Probabilities,
		Description:   prediction.Class.Description(),
		Suggestion:    prediction.Class.Suggestion(),
	}

	if format == FormatJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return writeTable(cmd.OutOrStdout(), &result)
}

func writeTable(w io.Writer, r *Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "File:\t%s\n", r.File)
	fmt.Fprintf(tw, "Prediction:\t%s (%.1f%%)\n", r.Label, r.Confidence*100)
	for i, p := range r.Probabilities {
		if class, err := classifier.ClassFromIndex(i); err == nil {
			fmt.Fprintf(tw, "  %s:\t%.3f\n", class.Label(), p)
		}
	}
	fmt.Fprintf(tw, "Description:\t%s\n", r.Description)
	fmt.Fprintf(tw, "Suggestions:\t%s\n", r.Suggestion)
	return tw.Flush()
}
