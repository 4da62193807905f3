package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NovobRom/new-delivery-dashboard/internal/importer"
	"github.com/NovobRom/new-delivery-dashboard/internal/model"
	"github.com/NovobRom/new-delivery-dashboard/internal/parser"
)

type inputOptions struct {
	encoding  string
	delimiter string
	detector  string
	threshold float64
}

func (o *inputOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.encoding, "encoding", "", "Force encoding (utf-8, utf-16le, utf-16be, windows-1251)")
	cmd.Flags().StringVar(&o.delimiter, "delimiter", "", `Force delimiter ("tab", ";", ",", "|")`)
	cmd.Flags().StringVar(&o.detector, "detector", string(parser.DetectorHeuristic), "Encoding detector: heuristic | statistical")
	cmd.Flags().Float64Var(&o.threshold, "threshold", parser.DefaultFuzzyThreshold, "Fuzzy header match threshold")
}

func (o *inputOptions) parserOptions() (parser.Options, error) {
	var opts parser.Options
	if o.encoding != "" {
		enc, err := parser.LookupEncoding(o.encoding)
		if err != nil {
			return opts, err
		}
		opts.Encoding = enc
	}
	if o.delimiter != "" {
		d, err := parser.ParseDelimiter(o.delimiter)
		if err != nil {
			return opts, err
		}
		opts.Delimiter = d
	}
	return opts, nil
}

func (o *inputOptions) detectorMode() (parser.DetectorMode, error) {
	switch parser.DetectorMode(o.detector) {
	case "", parser.DetectorHeuristic:
		return parser.DetectorHeuristic, nil
	case parser.DetectorStatistical:
		return parser.DetectorStatistical, nil
	}
	return "", fmt.Errorf("invalid --detector: %q", o.detector)
}

func newPreviewCmd() *cobra.Command {
	var in inputOptions
	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "Detect encoding and delimiter, print headers, sample rows and suggested mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd.OutOrStdout(), args[0], in)
		},
	}
	in.bind(cmd)
	return cmd
}

func runPreview(out io.Writer, path string, in inputOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	opts, err := in.parserOptions()
	if err != nil {
		return err
	}
	mode, err := in.detectorMode()
	if err != nil {
		return err
	}
	p := parser.NewPipeline(parser.NewEncodingDetector(mode), parser.NewFieldMapper(in.threshold), nil)
	preview, _, err := p.Preview(data, opts)
	if err != nil {
		return err
	}
	return writeJSON(out, preview)
}

type parseOptions struct {
	inputOptions
	mapping  string
	strict   bool
	required []string
	exclude  []string
}

// ParseOutput parse 命令输出
type ParseOutput struct {
	Records      []model.CanonicalRecord `json:"records"`
	Warnings     []string                `json:"warnings"`
	SkippedCount int                     `json:"skippedCount"`
	DroppedCount int                     `json:"droppedCount"`
	Mapping      model.HeaderMapping     `json:"mapping"`
}

func newParseCmd() *cobra.Command {
	var opts parseOptions
	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse the file into canonical records and print them as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd.OutOrStdout(), args[0], opts)
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.mapping, "mapping", "", `Header mapping as JSON object or @file.json (default: suggested mapping)`)
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Reject rows with empty required fields or invalid numbers")
	cmd.Flags().StringSliceVar(&opts.required, "required", nil, "Required fields in strict mode (default: date,status)")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "Courier names to drop (case-insensitive, repeatable)")
	return cmd
}

func runParse(out io.Writer, path string, opts parseOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	popts, err := opts.parserOptions()
	if err != nil {
		return err
	}
	mode, err := opts.detectorMode()
	if err != nil {
		return err
	}

	coercion := parser.CoercionPermissive
	if opts.strict {
		coercion = parser.CoercionStrict
	}
	var required []model.CanonicalField
	for _, name := range opts.required {
		f, err := model.ParseField(strings.TrimSpace(name))
		if err != nil {
			return fmt.Errorf("invalid --required: %w", err)
		}
		required = append(required, f)
	}

	p := parser.NewPipeline(
		parser.NewEncodingDetector(mode),
		parser.NewFieldMapper(opts.threshold),
		parser.NewValidator(coercion, required...),
	)

	// 先预览，固定编码与分隔符，保证与全量解析一致
	preview, resolved, err := p.Preview(data, popts)
	if err != nil {
		return err
	}

	mapping := preview.SuggestedMapping
	if opts.mapping != "" {
		mapping, err = loadMapping(opts.mapping)
		if err != nil {
			return err
		}
	}

	res, err := p.Parse(data, resolved, mapping)
	if err != nil {
		return err
	}
	kept, dropped := importer.NewExclusionList(opts.exclude...).Filter(res.Records)
	if kept == nil {
		kept = []model.CanonicalRecord{}
	}

	return writeJSON(out, ParseOutput{
		Records:      kept,
		Warnings:     res.Warnings,
		SkippedCount: res.SkippedCount,
		DroppedCount: dropped,
		Mapping:      mapping,
	})
}

// loadMapping 解析 --mapping：内联 JSON 或 @文件
func loadMapping(arg string) (model.HeaderMapping, error) {
	raw := []byte(arg)
	if strings.HasPrefix(arg, "@") {
		data, err := os.ReadFile(strings.TrimPrefix(arg, "@"))
		if err != nil {
			return nil, fmt.Errorf("failed to read mapping file: %w", err)
		}
		raw = data
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("invalid --mapping: %w", err)
	}
	mapping := make(model.HeaderMapping, len(m))
	for header, name := range m {
		f, err := model.ParseField(name)
		if err != nil {
			return nil, fmt.Errorf("invalid --mapping: %w", err)
		}
		mapping[header] = f
	}
	return mapping, nil
}

func newFieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List canonical fields with their known header synonyms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			type field struct {
				Name     model.CanonicalField `json:"name"`
				Numeric  bool                 `json:"numeric"`
				Synonyms []string             `json:"synonyms"`
			}
			var out []field
			for _, f := range model.AllFields() {
				out = append(out, field{Name: f, Numeric: f.IsNumeric(), Synonyms: parser.Synonyms(f)})
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
