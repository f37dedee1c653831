package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/stepviz/internal/harness"
	"github.com/roach88/stepviz/internal/ir"
	"github.com/roach88/stepviz/internal/script"
)

// FileValidation is the outcome for one script or scenario file.
type FileValidation struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"` // "script" or "scenario"
	Valid    bool   `json:"valid"`
	Commands int    `json:"commands,omitempty"`
	Steps    int    `json:"steps,omitempty"`
	Field    string `json:"field,omitempty"`
	Line     int    `json:"line,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>...",
		Short: "Check scene scripts and scenarios without playing them",
		Long: `Compile CUE scene scripts and parse YAML scenarios without playing them.

Each path may be a .cue script, a .yaml scenario or a directory, which is
searched for both.

Exit codes:
  0 - Every file is valid
  1 - At least one file is invalid
  2 - Command error (path not found, nothing to validate)

Examples:
  stepviz validate testdata/scripts/swap.cue
  stepviz validate testdata/scripts testdata/scenarios
  stepviz validate testdata/scripts --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	files, err := collectFiles(paths)
	if err != nil {
		if ferr := formatter.Error(ErrCodeNotFound, err.Error(), nil); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitCommandError, "failed to collect files", err)
	}
	if len(files) == 0 {
		msg := "no .cue or .yaml files found"
		if ferr := formatter.Error(ErrCodeNotFound, msg, nil); ferr != nil {
			return ferr
		}
		return NewExitError(ExitCommandError, msg)
	}

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(files))}
	for _, path := range files {
		formatter.VerboseLog("Validating %s", path)
		v := validateFile(path)
		if !v.Valid {
			result.Valid = false
		}
		result.Files = append(result.Files, v)
	}

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Valid {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeScript, Message: "validation failed", Details: result.Files}
			resp.Data = nil
		}
		if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
			return err
		}
	} else {
		outputValidateText(cmd, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

// collectFiles expands directories to their scripts and scenarios, in
// lexical order.
func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("path not found: %s", p)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isValidatable(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

func isValidatable(path string) bool {
	switch filepath.Ext(path) {
	case ".cue", ".yaml", ".yml":
		return true
	}
	return false
}

func validateFile(path string) FileValidation {
	if filepath.Ext(path) == ".cue" {
		return validateScript(path)
	}
	v := FileValidation{Path: path, Kind: "scenario", Valid: true}
	if _, err := harness.LoadScenario(path); err != nil {
		v.Valid = false
		v.Error = err.Error()
	}
	return v
}

func validateScript(path string) FileValidation {
	v := FileValidation{Path: path, Kind: "script"}
	s, err := script.LoadFile(path)
	if err != nil {
		var cErr *script.CompileError
		if errors.As(err, &cErr) {
			v.Field = cErr.Field
			v.Error = cErr.Message
			if cErr.Pos.IsValid() {
				v.Line = cErr.Pos.Line()
			}
		} else {
			v.Error = err.Error()
		}
		return v
	}
	v.Valid = true
	v.Commands = len(s.Commands()) - ir.CountSteps(s.Commands())
	v.Steps = len(s.Steps)
	return v
}

func outputValidateText(cmd *cobra.Command, result ValidationResult) {
	w := cmd.OutOrStdout()
	invalid := 0
	for _, f := range result.Files {
		if f.Valid {
			if f.Kind == "script" {
				fmt.Fprintf(w, "✓ %s (%d commands, %d steps)\n", f.Path, f.Commands, f.Steps)
			} else {
				fmt.Fprintf(w, "✓ %s\n", f.Path)
			}
			continue
		}
		invalid++
		switch {
		case f.Line > 0:
			fmt.Fprintf(w, "✗ %s:%d: %s: %s\n", f.Path, f.Line, f.Field, f.Error)
		case f.Field != "":
			fmt.Fprintf(w, "✗ %s: %s: %s\n", f.Path, f.Field, f.Error)
		default:
			fmt.Fprintf(w, "✗ %s: %s\n", f.Path, f.Error)
		}
	}
	fmt.Fprintln(w)
	if result.Valid {
		fmt.Fprintf(w, "✓ %d file(s) valid\n", len(result.Files))
	} else {
		fmt.Fprintf(w, "✗ %d of %d file(s) invalid\n", invalid, len(result.Files))
	}
}
